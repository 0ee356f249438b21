package playlist

import (
	"context"
	"fmt"
	"testing"

	"hastingtx/db/dbtest"
	"hastingtx/model"
	"hastingtx/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *Service
	songs     repository.SongRepository
	playlists repository.PlaylistRepository
	genres    repository.GenreRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gormDB := dbtest.Open(t)
	f := fixture{
		songs:     repository.NewGormSongRepository(gormDB),
		playlists: repository.NewGormPlaylistRepository(gormDB),
		genres:    repository.NewGormGenreRepository(gormDB),
	}
	f.svc = NewService(f.songs, f.playlists, f.genres)
	return f
}

func (f fixture) song(t *testing.T, title, album string) *model.Song {
	t.Helper()
	s := &model.Song{Identifier: fmt.Sprintf("%s-%s", title, album), Title: title, Album: album}
	require.NoError(t, f.songs.Create(context.Background(), s))
	return s
}

func songIDs(songs []model.Song) []int64 {
	out := make([]int64, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

func TestResolveOrderAllContainsEverySongOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	all, err := f.svc.EnsureAllPlaylist(ctx)
	require.NoError(t, err)

	a := f.song(t, "beta", "")
	b := f.song(t, "Alpha", "Demos")
	c := f.song(t, "gamma", "Abbey")
	// Only one song has an explicit row; the rest are virtual members.
	_, err = f.playlists.AddSong(ctx, all.ID, c.ID, nil)
	require.NoError(t, err)

	for _, order := range []model.SortOrder{model.SortManual, model.SortTitle, model.SortAlbum} {
		all.SortOrder = order
		require.NoError(t, f.playlists.Update(ctx, all))

		first, err := f.svc.ResolveOrder(ctx, model.AllPlaylistIdentifier)
		require.NoError(t, err)
		second, err := f.svc.ResolveOrder(ctx, model.AllPlaylistIdentifier)
		require.NoError(t, err)

		assert.ElementsMatch(t, []int64{a.ID, b.ID, c.ID}, songIDs(first), order)
		assert.Equal(t, songIDs(first), songIDs(second), "order %s must be deterministic", order)
	}

	all.SortOrder = model.SortAlbum
	require.NoError(t, f.playlists.Update(ctx, all))
	got, err := f.svc.ResolveOrder(ctx, model.AllPlaylistIdentifier)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, songIDs(got))

	all.SortOrder = model.SortManual
	require.NoError(t, f.playlists.Update(ctx, all))
	got, err = f.svc.ResolveOrder(ctx, model.AllPlaylistIdentifier)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got[0].ID, "positioned song comes before unpositioned ones")
}

func TestResolveOrderAllWithoutSeed(t *testing.T) {
	f := newFixture(t)
	a := f.song(t, "b", "")
	b := f.song(t, "a", "")

	got, err := f.svc.ResolveOrder(context.Background(), model.AllPlaylistIdentifier)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, songIDs(got))
}

func TestResolveOrderManualPlaylist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePlaylist(ctx, CreateInput{Name: "Road Mix"})
	require.NoError(t, err)
	assert.Equal(t, "road-mix", p.Identifier)
	assert.Equal(t, model.SortManual, p.SortOrder)
	assert.True(t, p.IsPublic, "playlists are public unless asked otherwise")

	a := f.song(t, "A", "")
	b := f.song(t, "B", "")
	c := f.song(t, "C", "")
	f.song(t, "not in playlist", "")
	for _, s := range []*model.Song{a, b, c} {
		_, err := f.svc.AddSong(ctx, p.Identifier, s.ID, nil)
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Reorder(ctx, p.Identifier, []int64{c.ID, a.ID, b.ID}))

	got, err := f.svc.ResolveOrder(ctx, p.Identifier)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, songIDs(got))

	_, err = f.svc.ResolveOrder(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolveOrderDoesNotTouchCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.song(t, "A", "")

	_, err := f.svc.ResolveOrder(ctx, model.AllPlaylistIdentifier)
	require.NoError(t, err)

	got, err := f.songs.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ListenCount)
	assert.Zero(t, got.DownloadCount)
}

func TestResolveByAlbum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.song(t, "b", "Road Trip")
	a := f.song(t, "A", "road trip")
	f.song(t, "c", "Elsewhere")

	got, err := f.svc.ResolveByAlbum(ctx, "ROAD TRIP")
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, songIDs(got))

	got, err = f.svc.ResolveByAlbum(ctx, "road trip", model.SortManual)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, songIDs(got), "manual falls back to upload order")

	_, err = f.svc.ResolveByAlbum(ctx, "road trip", model.SortOrder("shuffle"))
	assert.ErrorIs(t, err, model.ErrValidation)

	got, err = f.svc.ResolveByAlbum(ctx, "nothing here")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveByGenre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rock := &model.Genre{Name: "Rock"}
	require.NoError(t, f.genres.Create(ctx, rock))

	linked := &model.Song{Identifier: "z", Title: "Zebra", GenreID: &rock.ID, Genre: "Rock"}
	legacy := &model.Song{Identifier: "y", Title: "Yak", Genre: "rock"}
	other := &model.Song{Identifier: "x", Title: "Xylo", Genre: "Polka"}
	for _, s := range []*model.Song{linked, legacy, other} {
		require.NoError(t, f.songs.Create(ctx, s))
	}

	got, err := f.svc.ResolveByGenre(ctx, "ROCK")
	require.NoError(t, err)
	assert.Equal(t, []int64{legacy.ID, linked.ID}, songIDs(got))

	got, err = f.svc.ResolveByGenre(ctx, "polka")
	require.NoError(t, err)
	assert.Equal(t, []int64{other.ID}, songIDs(got), "text-only genres still resolve")
}

func TestCreatePlaylistValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePlaylist(ctx, CreateInput{Name: ""})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.svc.CreatePlaylist(ctx, CreateInput{Name: "x", SortOrder: "random"})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.svc.CreatePlaylist(ctx, CreateInput{Name: "x", Identifier: "all"})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.svc.CreatePlaylist(ctx, CreateInput{Name: "x", Identifier: "Not Safe"})
	assert.ErrorIs(t, err, model.ErrValidation)

	first, err := f.svc.CreatePlaylist(ctx, CreateInput{Name: "Mix"})
	require.NoError(t, err)
	second, err := f.svc.CreatePlaylist(ctx, CreateInput{Name: "Mix"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Identifier, second.Identifier)

	_, err = f.svc.CreatePlaylist(ctx, CreateInput{Name: "Mix", Identifier: first.Identifier})
	assert.ErrorIs(t, err, model.ErrDuplicate)
}

func TestUpdateAndDeletePlaylist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureAllPlaylist(ctx)
	require.NoError(t, err)
	p, err := f.svc.CreatePlaylist(ctx, CreateInput{Name: "Mix"})
	require.NoError(t, err)

	order := model.SortAlbum
	updated, err := f.svc.UpdatePlaylist(ctx, p.Identifier, UpdateInput{SortOrder: &order})
	require.NoError(t, err)
	assert.Equal(t, model.SortAlbum, updated.SortOrder)
	assert.Equal(t, "Mix", updated.Name)

	bad := model.SortOrder("nope")
	_, err = f.svc.UpdatePlaylist(ctx, p.Identifier, UpdateInput{SortOrder: &bad})
	assert.ErrorIs(t, err, model.ErrValidation)

	assert.ErrorIs(t, f.svc.DeletePlaylist(ctx, model.AllPlaylistIdentifier), model.ErrValidation)
	require.NoError(t, f.svc.DeletePlaylist(ctx, p.Identifier))
	assert.ErrorIs(t, f.svc.DeletePlaylist(ctx, p.Identifier), model.ErrNotFound)
}

func TestListCountsAllAsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureAllPlaylist(ctx)
	require.NoError(t, err)
	p, err := f.svc.CreatePlaylist(ctx, CreateInput{Name: "Mix"})
	require.NoError(t, err)
	a := f.song(t, "A", "")
	f.song(t, "B", "")
	require.NoError(t, f.svc.SetSongs(ctx, p.Identifier, []int64{a.ID}))

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, s := range list {
		counts[s.Identifier] = s.Songs
	}
	assert.Equal(t, map[string]int64{model.AllPlaylistIdentifier: 2, p.Identifier: 1}, counts)
}

func TestCreatePrivatePlaylist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	private := false
	p, err := f.svc.CreatePlaylist(ctx, CreateInput{Name: "Drafts", IsPublic: &private})
	require.NoError(t, err)
	assert.False(t, p.IsPublic)

	_, got, err := f.svc.ResolveEntries(ctx, "drafts")
	require.NoError(t, err)
	assert.False(t, got.IsPublic)

	_, all, err := f.svc.ResolveEntries(ctx, model.AllPlaylistIdentifier)
	require.NoError(t, err)
	assert.True(t, all.IsPublic)
}
