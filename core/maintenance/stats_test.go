package maintenance

import (
	"context"
	"testing"

	"hastingtx/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.add(t, model.Song{Album: "Demos", Artist: "R", Duration: 120, ListenCount: 3, DownloadCount: 1})
	f.add(t, model.Song{Album: "demos", Artist: "r", Duration: 60, ListenCount: 2, Genre: "Folk"})
	_, err := f.repos.Playlists.EnsureAll(ctx)
	require.NoError(t, err)
	require.NoError(t, f.repos.Genres.Create(ctx, &model.Genre{Name: "Rock"}))
	require.NoError(t, f.repos.Ratings.Upsert(ctx, a.ID, "10.0.0.1", 6))
	require.NoError(t, f.repos.Ratings.Upsert(ctx, a.ID, "10.0.0.2", 9))
	require.NoError(t, f.repos.Activity.RecordSongEvent(ctx, &model.ActivityEvent{EventType: model.EventPlay, SongID: &a.ID}))

	got, err := f.engine.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Songs)
	assert.Equal(t, int64(180), got.DurationSecs)
	assert.Equal(t, int64(6), got.Listens)
	assert.Equal(t, int64(1), got.Downloads)
	assert.Equal(t, int64(1), got.Albums, "albums are counted case-insensitively")
	assert.Equal(t, int64(1), got.Artists)
	assert.Equal(t, int64(1), got.UnlinkedGenres)
	assert.Equal(t, int64(1), got.Playlists)
	assert.Equal(t, int64(1), got.Genres)
	assert.Equal(t, int64(2), got.Ratings)
	assert.Equal(t, int64(1), got.RatedSongs)
	assert.InDelta(t, 7.5, got.AverageRating, 1e-9)
	assert.Equal(t, int64(1), got.EventsByType[model.EventPlay])
}

func TestTopBy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.add(t, model.Song{ListenCount: 5, DownloadCount: 1})
	b := f.add(t, model.Song{ListenCount: 9, DownloadCount: 1})
	c := f.add(t, model.Song{ListenCount: 5, DownloadCount: 7})

	top, err := f.engine.TopBy(ctx, MetricListens, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, b.ID, top[0].Song.ID)
	assert.Equal(t, float64(9), top[0].Value)
	assert.Equal(t, a.ID, top[1].Song.ID, "ties fall back to id")

	top, err = f.engine.TopBy(ctx, MetricDownloads, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, c.ID, top[0].Song.ID)

	require.NoError(t, f.repos.Ratings.Upsert(ctx, a.ID, "o1", 4))
	require.NoError(t, f.repos.Ratings.Upsert(ctx, a.ID, "o2", 5))
	require.NoError(t, f.repos.Ratings.Upsert(ctx, c.ID, "o1", 8))

	top, err = f.engine.TopBy(ctx, MetricRating, 10)
	require.NoError(t, err)
	require.Len(t, top, 2, "unrated songs are left out")
	assert.Equal(t, c.ID, top[0].Song.ID)
	assert.Equal(t, float64(8), top[0].Value)
	assert.Equal(t, int64(1), top[0].Votes)
	assert.Equal(t, a.ID, top[1].Song.ID)
	assert.Equal(t, 4.5, top[1].Value)

	_, err = f.engine.TopBy(ctx, "comments", 5)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestMissingFieldsSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	full := f.add(t, model.Song{
		Description: "d", Genre: "Rock", Album: "A", Lyrics: "l",
		CoverArt: "c.jpg", Composer: "c", Lyricist: "l",
	})
	_, err := f.repos.Tags.SetSongTags(ctx, full.ID, []string{"live"})
	require.NoError(t, err)
	f.add(t, model.Song{Album: "B"})

	got, err := f.engine.MissingFieldsSummary(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(model.MissingFields))

	byField := map[string]MissingField{}
	for _, m := range got {
		byField[m.Field] = m
	}
	assert.Equal(t, model.FieldDescription, got[0].Field)
	assert.Equal(t, int64(1), byField[model.FieldDescription].Missing)
	assert.Equal(t, int64(2), byField[model.FieldDescription].Total)
	assert.Equal(t, 50.0, byField[model.FieldDescription].Percent)
	assert.Zero(t, byField[model.FieldAlbum].Missing)
	assert.Equal(t, int64(1), byField[model.FieldTags].Missing)
}

func TestMissingFieldsSummaryEmptyCatalog(t *testing.T) {
	f := newFixture(t)
	got, err := f.engine.MissingFieldsSummary(context.Background())
	require.NoError(t, err)
	for _, m := range got {
		assert.Zero(t, m.Percent)
	}
}
