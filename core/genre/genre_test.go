package genre

import (
	"context"
	"testing"

	"hastingtx/db/dbtest"
	"hastingtx/model"
	"hastingtx/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(n int64) *int64 { return &n }

func TestCheckCycle(t *testing.T) {
	// 1 <- 2 <- 3, 4 is a root, 5 <-> 6 is already corrupt.
	arena := map[int64]*int64{
		1: nil,
		2: id(1),
		3: id(2),
		4: nil,
		5: id(6),
		6: id(5),
	}

	tests := []struct {
		name     string
		genre    int64
		parent   int64
		wantFail bool
	}{
		{"self parent", 1, 1, true},
		{"root under leaf", 1, 3, true},
		{"direct child becomes parent", 2, 3, true},
		{"move leaf to other root", 3, 4, false},
		{"attach root under chain", 4, 3, false},
		{"walk into existing loop terminates", 4, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCycle(arena, tt.genre, tt.parent)
			if tt.wantFail {
				assert.ErrorIs(t, err, model.ErrCycle)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fixture struct {
	svc    *Service
	genres repository.GenreRepository
	songs  repository.SongRepository
}

func newFixture(t *testing.T, surfaceAncestors bool) fixture {
	t.Helper()
	gormDB := dbtest.Open(t)
	genres := repository.NewGormGenreRepository(gormDB)
	return fixture{
		svc:    NewService(genres, surfaceAncestors),
		genres: genres,
		songs:  repository.NewGormSongRepository(gormDB),
	}
}

func TestCreateGenre(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	rock, err := f.svc.CreateGenre(ctx, "Rock", "loud", "")
	require.NoError(t, err)
	assert.Nil(t, rock.ParentID)

	punk, err := f.svc.CreateGenre(ctx, "Punk", "", "rock")
	require.NoError(t, err)
	require.NotNil(t, punk.ParentID)
	assert.Equal(t, rock.ID, *punk.ParentID)

	_, err = f.svc.CreateGenre(ctx, "ROCK", "", "")
	assert.ErrorIs(t, err, model.ErrDuplicate)

	_, err = f.svc.CreateGenre(ctx, "Ska", "", "Nonexistent")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.CreateGenre(ctx, "   ", "", "")
	assert.ErrorIs(t, err, model.ErrValidation)

	n, err := f.genres.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "failed creates leave nothing behind")
}

func TestSetParentRejectsCycles(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a, err := f.svc.CreateGenre(ctx, "A", "", "")
	require.NoError(t, err)
	b, err := f.svc.CreateGenre(ctx, "B", "", "")
	require.NoError(t, err)
	c, err := f.svc.CreateGenre(ctx, "C", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.SetParent(ctx, a.ID, &a.ID), model.ErrCycle)

	require.NoError(t, f.svc.SetParent(ctx, a.ID, &b.ID))
	assert.ErrorIs(t, f.svc.SetParent(ctx, b.ID, &a.ID), model.ErrCycle)

	require.NoError(t, f.svc.SetParent(ctx, b.ID, &c.ID))
	assert.ErrorIs(t, f.svc.SetParent(ctx, c.ID, &a.ID), model.ErrCycle)

	chain, err := f.svc.Ancestors(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "B", chain[0].Name)
	assert.Equal(t, "C", chain[1].Name)

	require.NoError(t, f.svc.SetParent(ctx, a.ID, nil))
	chain, err = f.svc.Ancestors(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, chain)

	missing := int64(999)
	assert.ErrorIs(t, f.svc.SetParent(ctx, a.ID, &missing), model.ErrNotFound)
}

func seedPopulated(t *testing.T, f fixture) (rock, punk, jazz *model.Genre) {
	t.Helper()
	ctx := context.Background()
	var err error
	rock, err = f.svc.CreateGenre(ctx, "Rock", "", "")
	require.NoError(t, err)
	punk, err = f.svc.CreateGenre(ctx, "Punk", "", "Rock")
	require.NoError(t, err)
	jazz, err = f.svc.CreateGenre(ctx, "Jazz", "", "")
	require.NoError(t, err)

	require.NoError(t, f.songs.Create(ctx, &model.Song{Identifier: "s1", Title: "S1", GenreID: &punk.ID, Genre: "Punk"}))
	require.NoError(t, f.songs.Create(ctx, &model.Song{Identifier: "s2", Title: "S2", Genre: "punk"}))
	require.NoError(t, f.songs.Create(ctx, &model.Song{Identifier: "s3", Title: "S3", GenreID: &jazz.ID}))
	return rock, punk, jazz
}

func TestPopulatedGenresDirectOnly(t *testing.T) {
	f := newFixture(t, false)
	seedPopulated(t, f)

	got, err := f.svc.PopulatedGenres(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2, "Rock has only a populated child and stays hidden")
	assert.Equal(t, "Jazz", got[0].Name)
	assert.Equal(t, int64(1), got[0].SongCount)
	assert.Equal(t, "Punk", got[1].Name)
	assert.Equal(t, int64(2), got[1].SongCount)
	assert.Equal(t, "Rock", got[1].ParentName)
}

func TestPopulatedGenresSurfacingAncestors(t *testing.T) {
	f := newFixture(t, true)
	seedPopulated(t, f)

	got, err := f.svc.PopulatedGenres(context.Background())
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, g := range got {
		names[i] = g.Name
	}
	assert.Equal(t, []string{"Jazz", "Punk", "Rock"}, names)
	assert.Zero(t, got[2].SongCount, "ancestors keep their own direct count")
}

func TestDeleteGenreAndList(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, punk, _ := seedPopulated(t, f)

	require.NoError(t, f.svc.DeleteGenre(ctx, "rock"))
	got, err := f.genres.GetByID(ctx, punk.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Jazz", list[0].Name)

	assert.ErrorIs(t, f.svc.DeleteGenre(ctx, "rock"), model.ErrNotFound)
}
