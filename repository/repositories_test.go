package repository

import (
	"context"
	"errors"
	"testing"

	"hastingtx/db/dbtest"
	"hastingtx/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRollsBackEveryRepository(t *testing.T) {
	all := NewGormRepositories(dbtest.Open(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := all.Transaction(ctx, func(tx *Repositories) error {
		song := &model.Song{Identifier: "sunset", Title: "Sunset"}
		require.NoError(t, tx.Songs.Create(ctx, song))
		_, err := tx.Tags.SetSongTags(ctx, song.ID, []string{"live"})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := all.Songs.IdentifierExists(ctx, "sunset")
	require.NoError(t, err)
	assert.False(t, exists)
	tags, err := all.Tags.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	err = all.Transaction(ctx, func(tx *Repositories) error {
		return tx.Songs.Create(ctx, &model.Song{Identifier: "sunrise", Title: "Sunrise"})
	})
	require.NoError(t, err)
	exists, err = all.Songs.IdentifierExists(ctx, "sunrise")
	require.NoError(t, err)
	assert.True(t, exists)
}
