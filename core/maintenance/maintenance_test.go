package maintenance

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
	engine *Engine
	repos  *repository.Repositories
	n      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewGormRepositories(dbtest.Open(t))
	return &fixture{engine: NewEngine(repos), repos: repos}
}

func (f *fixture) add(t *testing.T, s model.Song) *model.Song {
	t.Helper()
	f.n++
	if s.Identifier == "" {
		s.Identifier = fmt.Sprintf("song-%d", f.n)
	}
	if s.Title == "" {
		s.Title = s.Identifier
	}
	require.NoError(t, f.repos.Songs.Create(context.Background(), &s))
	return &s
}

func (f *fixture) album(t *testing.T, id int64) string {
	t.Helper()
	s, err := f.repos.Songs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s.Album
}

func TestDuplicateKey(t *testing.T) {
	assert.Equal(t, "sunset | richard & claude", DuplicateKey("  Sunset ", "Richard  &\tClaude"))
	assert.Equal(t, " | ", DuplicateKey("", ""))
}

func TestFindDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.add(t, model.Song{Title: "Sunset", Artist: "Richard & Claude", ListenCount: 4})
	second := f.add(t, model.Song{Title: "sunset ", Artist: "richard  & claude", DownloadCount: 2})
	f.add(t, model.Song{Title: "Sunrise", Artist: "Richard & Claude"})

	groups, err := f.engine.FindDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "sunset | richard & claude", groups[0].Key)
	require.Len(t, groups[0].Songs, 2)
	assert.Equal(t, first.ID, groups[0].Songs[0].ID)
	assert.Equal(t, int64(4), groups[0].Songs[0].ListenCount)
	assert.Equal(t, second.ID, groups[0].Songs[1].ID)
	assert.Equal(t, int64(2), groups[0].Songs[1].DownloadCount)
	assert.False(t, groups[0].Songs[0].UploadDate.IsZero())

	n, err := f.repos.Songs.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.Songs, "duplicates are reported, never deleted")
}

func TestFindDuplicatesOrdering(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		f.add(t, model.Song{Title: "B", Artist: "x"})
	}
	for i := 0; i < 3; i++ {
		f.add(t, model.Song{Title: "Z", Artist: "x"})
	}
	for i := 0; i < 2; i++ {
		f.add(t, model.Song{Title: "A", Artist: "x"})
	}

	groups, err := f.engine.FindDuplicates(context.Background())
	require.NoError(t, err)
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"z | x", "a | x", "b | x"}, keys)
}

func TestFindOrphanedFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, model.Song{Title: "X", Filename: "a.mp3"})
	f.add(t, model.Song{Title: "No file"})

	report, err := f.engine.FindOrphanedFiles(ctx, []string{"a.mp3", "b.mp3"})
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	assert.Equal(t, []string{"b.mp3"}, report.Untracked)

	y := f.add(t, model.Song{Title: "Y", Filename: "z.mp3"})
	report, err = f.engine.FindOrphanedFiles(ctx, []string{"a.mp3", "b.mp3"})
	require.NoError(t, err)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, y.ID, report.Missing[0].SongID)
	assert.Equal(t, "z.mp3", report.Missing[0].Filename)
	assert.Equal(t, []string{"b.mp3"}, report.Untracked)

	report, err = f.engine.FindOrphanedFiles(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, report.Missing, 2)
	assert.Empty(t, report.Untracked)
}

func TestCanonicalCasing(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   string
	}{
		{"majority wins", map[string]int{"road trip": 1, "Road Trip": 2}, "Road Trip"},
		{"tie goes to first in sort order", map[string]int{"abc": 1, "ABC": 1, "Abc": 1}, "ABC"},
		{"single spelling", map[string]int{"Demos": 5}, "Demos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalCasing(tt.counts))
		})
	}
}

func TestFixCaseAlbumMajority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.add(t, model.Song{Album: "road trip"})
	b := f.add(t, model.Song{Album: "Road Trip"})
	c := f.add(t, model.Song{Album: "Road Trip"})
	other := f.add(t, model.Song{Album: "Demos"})

	res, err := f.engine.FixCase(ctx, DimensionAlbum)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Rows)
	require.Len(t, res.Fixes, 1)
	assert.Equal(t, "Road Trip", res.Fixes[0].Canonical)
	assert.Equal(t, []string{"road trip"}, res.Fixes[0].Variants)

	for _, s := range []*model.Song{a, b, c} {
		assert.Equal(t, "Road Trip", f.album(t, s.ID))
	}
	assert.Equal(t, "Demos", f.album(t, other.ID))

	res, err = f.engine.FixCase(ctx, DimensionAlbum)
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
	assert.Empty(t, res.Fixes)
}

func TestFixCaseGenreRelinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rock := &model.Genre{Name: "Rock"}
	require.NoError(t, f.repos.Genres.Create(ctx, rock))

	a := f.add(t, model.Song{Genre: "Rock"})
	b := f.add(t, model.Song{Genre: "Rock"})
	c := f.add(t, model.Song{Genre: "ROCK"})

	res, err := f.engine.FixCase(ctx, DimensionGenre)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Rows)

	for _, s := range []*model.Song{a, b, c} {
		got, err := f.repos.Songs.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rock", got.Genre)
		require.NotNil(t, got.GenreID)
		assert.Equal(t, rock.ID, *got.GenreID)
	}
}

func TestFixCaseGenreKeepsGenreNameForLinkedSongs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rock := &model.Genre{Name: "Rock"}
	require.NoError(t, f.repos.Genres.Create(ctx, rock))

	linked := f.add(t, model.Song{Genre: "Rock", GenreID: &rock.ID})
	stale := f.add(t, model.Song{Genre: "Classic", GenreID: &rock.ID})
	var loose []*model.Song
	for i := 0; i < 3; i++ {
		loose = append(loose, f.add(t, model.Song{Genre: "rock"}))
	}

	res, err := f.engine.FixCase(ctx, DimensionGenre)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Rows)
	require.Len(t, res.Fixes, 1)
	assert.Equal(t, "Rock", res.Fixes[0].Canonical, "the Genre row outranks the majority spelling")
	assert.Equal(t, []string{"rock"}, res.Fixes[0].Variants)

	for _, s := range append([]*model.Song{linked, stale}, loose...) {
		got, err := f.repos.Songs.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rock", got.Genre)
		require.NotNil(t, got.GenreID)
		assert.Equal(t, rock.ID, *got.GenreID)
	}

	res, err = f.engine.FixCase(ctx, DimensionGenre)
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
}

func TestFixCaseRejectsUnknownDimension(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.FixCase(context.Background(), "title")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestMergeAlbumsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.add(t, model.Song{Album: "Demo Tapes"})
	b := f.add(t, model.Song{Album: "demo tapes"})
	c := f.add(t, model.Song{Album: "Demos"})
	other := f.add(t, model.Song{Album: "Live"})

	rows, err := f.engine.MergeAlbums(ctx, []string{"Demo Tapes"}, "Demos")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	for _, s := range []*model.Song{a, b, c} {
		assert.Equal(t, "Demos", f.album(t, s.ID))
	}
	assert.Equal(t, "Live", f.album(t, other.ID))

	rows, err = f.engine.MergeAlbums(ctx, []string{"Demo Tapes"}, "Demos")
	require.NoError(t, err)
	assert.Zero(t, rows)

	_, err = f.engine.MergeAlbums(ctx, nil, "Demos")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.engine.MergeAlbums(ctx, []string{"Live"}, " ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRenameAlbum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.add(t, model.Song{Album: "Old Name"})
	b := f.add(t, model.Song{Album: "old name"})

	rows, err := f.engine.RenameAlbum(ctx, "OLD NAME", "New Name")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	assert.Equal(t, "New Name", f.album(t, a.ID))
	assert.Equal(t, "New Name", f.album(t, b.ID))

	_, err = f.engine.RenameAlbum(ctx, "Old Name", "New Name")
	assert.ErrorIs(t, err, model.ErrNotFound)

	rows, err = f.engine.RenameAlbum(ctx, "new name", "New Name")
	require.NoError(t, err)
	assert.Zero(t, rows, "renaming onto the same spelling changes nothing")
}
