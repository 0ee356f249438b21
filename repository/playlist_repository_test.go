package repository

import (
	"context"
	"testing"

	"hastingtx/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlaylist(t *testing.T, r repos, identifier string) *model.Playlist {
	t.Helper()
	p := &model.Playlist{Identifier: identifier, Name: identifier, SortOrder: model.SortManual}
	require.NoError(t, r.playlists.Create(context.Background(), p))
	return p
}

func TestEnsureAllIsIdempotentAndUndeletable(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	first, err := r.playlists.EnsureAll(ctx)
	require.NoError(t, err)
	second, err := r.playlists.EnsureAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsAll())

	err = r.playlists.Delete(ctx, first.ID)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = r.playlists.GetByIdentifier(ctx, model.AllPlaylistIdentifier)
	assert.NoError(t, err)
}

func TestPlaylistAddSongPositions(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := newPlaylist(t, r, "mix")
	a := addSong(t, r, model.Song{Title: "A"})
	b := addSong(t, r, model.Song{Title: "B"})

	rowA, err := r.playlists.AddSong(ctx, p.ID, a.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, rowA.Position)
	assert.Equal(t, 1, *rowA.Position)

	rowB, err := r.playlists.AddSong(ctx, p.ID, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, *rowB.Position)

	// Re-adding moves the song instead of creating a second row.
	ten := 10
	again, err := r.playlists.AddSong(ctx, p.ID, a.ID, &ten)
	require.NoError(t, err)
	assert.Equal(t, rowA.ID, again.ID)
	assert.Equal(t, 10, *again.Position)

	rows, err := r.playlists.Memberships(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = r.playlists.AddSong(ctx, p.ID, 999, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = r.playlists.AddSong(ctx, 999, a.ID, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPlaylistRemoveSong(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := newPlaylist(t, r, "mix")
	a := addSong(t, r, model.Song{Title: "A"})
	_, err := r.playlists.AddSong(ctx, p.ID, a.ID, nil)
	require.NoError(t, err)

	require.NoError(t, r.playlists.RemoveSong(ctx, p.ID, a.ID))
	assert.ErrorIs(t, r.playlists.RemoveSong(ctx, p.ID, a.ID), model.ErrNotFound)
}

func TestPlaylistReorder(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := newPlaylist(t, r, "mix")
	a := addSong(t, r, model.Song{Title: "A"})
	b := addSong(t, r, model.Song{Title: "B"})
	outsider := addSong(t, r, model.Song{Title: "C"})
	for _, s := range []*model.Song{a, b} {
		_, err := r.playlists.AddSong(ctx, p.ID, s.ID, nil)
		require.NoError(t, err)
	}

	require.NoError(t, r.playlists.Reorder(ctx, p.ID, []int64{b.ID, a.ID}))
	entries, err := r.playlists.Entries(ctx, p.ID)
	require.NoError(t, err)
	positions := map[int64]int{}
	for _, e := range entries {
		positions[e.Song.ID] = *e.Position
	}
	assert.Equal(t, map[int64]int{b.ID: 1, a.ID: 2}, positions)

	err = r.playlists.Reorder(ctx, p.ID, []int64{a.ID, outsider.ID})
	assert.ErrorIs(t, err, model.ErrConflict)
	entries, err = r.playlists.Entries(ctx, p.ID)
	require.NoError(t, err)
	for _, e := range entries {
		if e.Song.ID == a.ID {
			assert.Equal(t, 2, *e.Position, "failed reorder must roll back")
		}
	}

	assert.ErrorIs(t, r.playlists.Reorder(ctx, p.ID, []int64{a.ID, a.ID}), model.ErrValidation)
}

func TestPlaylistSetSongsAndDelete(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := newPlaylist(t, r, "mix")
	a := addSong(t, r, model.Song{Title: "A"})
	b := addSong(t, r, model.Song{Title: "B"})

	require.NoError(t, r.playlists.SetSongs(ctx, p.ID, []int64{b.ID, a.ID}))
	counts, err := r.playlists.SongCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[p.ID])

	assert.ErrorIs(t, r.playlists.SetSongs(ctx, p.ID, []int64{a.ID, 999}), model.ErrNotFound)
	counts, err = r.playlists.SongCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[p.ID])

	require.NoError(t, r.playlists.Delete(ctx, p.ID))
	rows, err := r.playlists.Memberships(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	_, err = r.playlists.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPlaylistDuplicateIdentifier(t *testing.T) {
	r := newRepos(t)
	newPlaylist(t, r, "mix")
	err := r.playlists.Create(context.Background(), &model.Playlist{Identifier: "mix", Name: "Again", SortOrder: model.SortTitle})
	assert.ErrorIs(t, err, model.ErrDuplicate)
}

func TestCreatePlaylistStoresVisibility(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	hidden := &model.Playlist{Identifier: "hidden", Name: "Hidden", SortOrder: model.SortManual, IsPublic: false}
	require.NoError(t, r.playlists.Create(ctx, hidden))
	shown := &model.Playlist{Identifier: "shown", Name: "Shown", SortOrder: model.SortManual, IsPublic: true}
	require.NoError(t, r.playlists.Create(ctx, shown))

	got, err := r.playlists.GetByIdentifier(ctx, "hidden")
	require.NoError(t, err)
	assert.False(t, got.IsPublic)
	assert.False(t, hidden.IsPublic)

	got, err = r.playlists.GetByIdentifier(ctx, "shown")
	require.NoError(t, err)
	assert.True(t, got.IsPublic)
}
