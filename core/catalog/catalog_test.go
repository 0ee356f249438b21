package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"hastingtx/cache"
	"hastingtx/core/audio"
	"hastingtx/db/dbtest"
	"hastingtx/model"
	"hastingtx/repository"
	"hastingtx/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*Catalog, *cache.MemorySummaryCache) {
	t.Helper()
	summaries := cache.NewMemorySummaryCache()
	repos := repository.NewGormRepositories(dbtest.Open(t))
	return New(repos, summaries, Options{RatingMinVotes: 2}), summaries
}

func strPtr(s string) *string { return &s }

func TestCreateSong(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	rock, err := c.CreateGenre(ctx, "Rock", "", "")
	require.NoError(t, err)

	song, err := c.CreateSong(ctx, SongInput{
		Title:  "  Sunset Drive ",
		Artist: "Richard",
		Genre:  "rock",
		Tags:   []string{"Live", "live", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "sunset-drive", song.Identifier)
	assert.Equal(t, "Sunset Drive", song.Title)
	assert.Equal(t, "Rock", song.Genre, "genre text takes the Genre row's spelling")
	require.NotNil(t, song.GenreID)
	assert.Equal(t, rock.ID, *song.GenreID)
	require.Len(t, song.Tags, 1)

	again, err := c.CreateSong(ctx, SongInput{Title: "Sunset Drive"})
	require.NoError(t, err)
	assert.NotEqual(t, song.Identifier, again.Identifier)

	loose, err := c.CreateSong(ctx, SongInput{Title: "Polka Night", Genre: "Polka"})
	require.NoError(t, err)
	assert.Equal(t, "Polka", loose.Genre)
	assert.Nil(t, loose.GenreID)

	_, err = c.CreateSong(ctx, SongInput{Title: " "})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = c.CreateSong(ctx, SongInput{Title: "x", Identifier: "Not Safe"})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = c.CreateSong(ctx, SongInput{Title: "x", Identifier: song.Identifier})
	assert.ErrorIs(t, err, model.ErrDuplicate)
}

func TestUpdateSong(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	song, err := c.CreateSong(ctx, SongInput{Title: "A", Album: "Demos", Tags: []string{"old"}})
	require.NoError(t, err)
	require.NoError(t, c.RecordPlay(ctx, song.ID, "10.0.0.1"))

	tags := []string{"new", "fresh"}
	got, err := c.UpdateSong(ctx, song.ID, SongUpdate{Artist: strPtr("Claude"), Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "Demos", got.Album)
	assert.Equal(t, "Claude", got.Artist)
	assert.Equal(t, int64(1), got.ListenCount, "updates never reset counters")
	assert.Len(t, got.Tags, 2)

	_, err = c.UpdateSong(ctx, song.ID, SongUpdate{Title: strPtr("  ")})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = c.UpdateSong(ctx, 999, SongUpdate{Artist: strPtr("x")})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteSongForgetsCachedSummary(t *testing.T) {
	c, summaries := newCatalog(t)
	ctx := context.Background()
	song, err := c.CreateSong(ctx, SongInput{Title: "A"})
	require.NoError(t, err)
	_, err = c.RecordRating(ctx, song.ID, "10.0.0.1", 7)
	require.NoError(t, err)
	_, err = c.RatingSummary(ctx, song.ID)
	require.NoError(t, err)
	_, cached := summaries.Get(ctx, song.ID)
	require.True(t, cached)

	require.NoError(t, c.DeleteSong(ctx, song.ID))
	_, cached = summaries.Get(ctx, song.ID)
	assert.False(t, cached)
	assert.ErrorIs(t, c.DeleteSong(ctx, song.ID), model.ErrNotFound)
}

func TestListSongsOrders(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	b, err := c.CreateSong(ctx, SongInput{Title: "beta", Album: "Zed"})
	require.NoError(t, err)
	a, err := c.CreateSong(ctx, SongInput{Title: "Alpha", Album: "Abe"})
	require.NoError(t, err)

	got, err := c.ListSongs(ctx, SongOrderTitle, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, []int64{got[0].ID, got[1].ID})

	got, err = c.ListSongs(ctx, SongOrderID, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	_, err = c.ListSongs(ctx, "random", 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSetGenre(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	song, err := c.CreateSong(ctx, SongInput{Title: "A"})
	require.NoError(t, err)

	_, err = c.SetGenre(ctx, []int64{song.ID}, "Ambient", false)
	assert.ErrorIs(t, err, model.ErrNotFound)

	rows, err := c.SetGenre(ctx, []int64{song.ID}, "Ambient", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got, err := c.ResolveByGenre(ctx, "ambient")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, song.ID, got[0].ID)

	_, err = c.SetGenre(ctx, nil, "Ambient", false)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSetParentByName(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	_, err := c.CreateGenre(ctx, "Rock", "", "")
	require.NoError(t, err)
	_, err = c.CreateGenre(ctx, "Punk", "", "")
	require.NoError(t, err)

	require.NoError(t, c.SetParentByName(ctx, "punk", "rock"))
	chain, err := c.GenreAncestors(ctx, "Punk")
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, "Rock", chain[0].Name)

	assert.ErrorIs(t, c.SetParentByName(ctx, "Rock", "Punk"), model.ErrCycle)
	require.NoError(t, c.SetParentByName(ctx, "Punk", ""))
	assert.ErrorIs(t, c.SetParentByName(ctx, "Ska", ""), model.ErrNotFound)
}

func TestActivity(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	song, err := c.CreateSong(ctx, SongInput{Title: "A"})
	require.NoError(t, err)

	require.NoError(t, c.RecordPlay(ctx, song.ID, "10.0.0.1"))
	require.NoError(t, c.RecordPlay(ctx, song.ID, "10.0.0.2"))
	require.NoError(t, c.RecordDownload(ctx, song.ID, "10.0.0.1"))
	require.NoError(t, c.RecordVisit(ctx, "10.0.0.3", "/playlist/all"))
	assert.ErrorIs(t, c.RecordPlay(ctx, 999, "10.0.0.1"), model.ErrNotFound)
	_, err = c.RecordRating(ctx, song.ID, "10.0.0.1", 9)
	require.NoError(t, err)

	got, err := c.GetSong(ctx, song.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ListenCount)
	assert.Equal(t, int64(1), got.DownloadCount)

	recent, err := c.RecentActivity(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent.Uploads, 1)
	assert.Len(t, recent.Ratings, 1)
	assert.Len(t, recent.Events, 4)

	overview, err := c.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.EventsByType[model.EventPlay])
	assert.Equal(t, int64(1), overview.EventsByType[model.EventVisit])
}

func TestFindOrphanedFilesIn(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	_, err := c.CreateSong(ctx, SongInput{Title: "X", Filename: "a.mp3"})
	require.NoError(t, err)
	_, err = c.CreateSong(ctx, SongInput{Title: "Y", Filename: "z.mp3"})
	require.NoError(t, err)

	report, err := c.FindOrphanedFilesIn(ctx, storage.NewLocalLister(dir))
	require.NoError(t, err)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "z.mp3", report.Missing[0].Filename)
	assert.Equal(t, []string{"b.mp3"}, report.Untracked)
}

type fakeInspector map[string]audio.Metadata

func (f fakeInspector) Inspect(_ context.Context, path string) (audio.Metadata, error) {
	md, ok := f[filepath.Base(path)]
	if !ok {
		return audio.Metadata{}, errors.New("unreadable")
	}
	return md, nil
}

func TestFillDurations(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "known.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	a, err := c.CreateSong(ctx, SongInput{Title: "A", Filename: "a.mp3"})
	require.NoError(t, err)
	_, err = c.CreateSong(ctx, SongInput{Title: "B", Filename: "b.mp3"})
	require.NoError(t, err)
	known, err := c.CreateSong(ctx, SongInput{Title: "Known", Filename: "known.mp3", Duration: 99})
	require.NoError(t, err)
	_, err = c.CreateSong(ctx, SongInput{Title: "Gone", Filename: "gone.mp3"})
	require.NoError(t, err)
	_, err = c.CreateSong(ctx, SongInput{Title: "No file"})
	require.NoError(t, err)

	inspector := fakeInspector{"a.mp3": {Duration: 215, Codec: "mp3"}, "known.mp3": {Duration: 1}}

	report, err := c.FillDurations(ctx, dir, inspector, true)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Candidates)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, []string{"gone.mp3"}, report.Missing)
	assert.Equal(t, []string{"b.mp3"}, report.Failed)
	got, err := c.GetSong(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Duration, "dry run writes nothing")

	report, err = c.FillDurations(ctx, dir, inspector, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	got, err = c.GetSong(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 215, got.Duration)
	got, err = c.GetSong(ctx, known.ID)
	require.NoError(t, err)
	assert.Equal(t, 99, got.Duration, "known durations are left alone")
}

func TestSongWritesRollBackWhenTaggingFails(t *testing.T) {
	gormDB := dbtest.Open(t)
	c := New(repository.NewGormRepositories(gormDB), nil, Options{})
	ctx := context.Background()
	require.NoError(t, gormDB.Exec(`CREATE TRIGGER tags_unavailable BEFORE INSERT ON tags
		BEGIN SELECT RAISE(ABORT, 'tags unavailable'); END`).Error)

	_, err := c.CreateSong(ctx, SongInput{Title: "Sunset Drive", Tags: []string{"live"}})
	require.Error(t, err)
	songs, err := c.ListSongs(ctx, SongOrderID, 0)
	require.NoError(t, err)
	assert.Empty(t, songs, "a failed tag write leaves no song behind")

	song, err := c.CreateSong(ctx, SongInput{Title: "Sunset Drive"})
	require.NoError(t, err)
	assert.Equal(t, "sunset-drive", song.Identifier)

	_, err = c.UpdateSong(ctx, song.ID, SongUpdate{Artist: strPtr("Richard"), Tags: &[]string{"live"}})
	require.Error(t, err)
	got, err := c.GetSong(ctx, song.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Artist)
}

func TestRecordVisitTruncatesOnCharacterBoundary(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	require.NoError(t, c.RecordVisit(ctx, "10.0.0.1", strings.Repeat("é", 300)))

	activity, err := c.RecentActivity(ctx, 1)
	require.NoError(t, err)
	require.Len(t, activity.Events, 1)
	page := activity.Events[0].Page
	assert.True(t, utf8.ValidString(page))
	assert.Equal(t, maxPageLen, utf8.RuneCountInString(page))
}
