package repository

import (
	"context"
	"testing"

	"hastingtx/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSongTagsReusesTagsCaseInsensitively(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := addSong(t, r, model.Song{Title: "A"})
	b := addSong(t, r, model.Song{Title: "B"})

	tags, err := r.tags.SetSongTags(ctx, a.ID, []string{"Live", "acoustic", "live", " "})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	_, err = r.tags.SetSongTags(ctx, b.ID, []string{"LIVE"})
	require.NoError(t, err)

	all, err := r.tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "acoustic", all[0].Name)
	assert.Equal(t, int64(1), all[0].SongCount)
	assert.Equal(t, "Live", all[1].Name)
	assert.Equal(t, int64(2), all[1].SongCount)

	// Replacing drops the old set.
	_, err = r.tags.SetSongTags(ctx, a.ID, nil)
	require.NoError(t, err)
	forA, err := r.tags.ForSong(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, forA)

	_, err = r.tags.SetSongTags(ctx, 999, []string{"x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTagDelete(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := addSong(t, r, model.Song{Title: "A"})
	tags, err := r.tags.SetSongTags(ctx, a.ID, []string{"demo"})
	require.NoError(t, err)

	require.NoError(t, r.tags.Delete(ctx, tags[0].ID))
	forA, err := r.tags.ForSong(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, forA)
	assert.ErrorIs(t, r.tags.Delete(ctx, tags[0].ID), model.ErrNotFound)
}
