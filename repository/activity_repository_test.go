package repository

import (
	"context"
	"sync"
	"testing"

	"hastingtx/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSongEventBumpsCounter(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	s := addSong(t, r, model.Song{Title: "A"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.activity.RecordSongEvent(ctx, &model.ActivityEvent{
				EventType: model.EventPlay, SongID: &s.ID, Origin: "10.0.0.1",
			}))
		}()
	}
	wg.Wait()
	require.NoError(t, r.activity.RecordSongEvent(ctx, &model.ActivityEvent{EventType: model.EventDownload, SongID: &s.ID}))

	got, err := r.songs.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ListenCount)
	assert.Equal(t, int64(1), got.DownloadCount)

	counts, err := r.activity.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), counts[model.EventPlay])
	assert.Equal(t, int64(1), counts[model.EventDownload])
}

func TestRecordSongEventUnknownSongLeavesNoEvent(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	missing := int64(404)

	err := r.activity.RecordSongEvent(ctx, &model.ActivityEvent{EventType: model.EventPlay, SongID: &missing})
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = r.activity.RecordSongEvent(ctx, &model.ActivityEvent{EventType: model.EventVisit, SongID: &missing})
	assert.ErrorIs(t, err, model.ErrValidation)

	events, err := r.activity.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecentActivityNewestFirst(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	require.NoError(t, r.activity.Append(ctx, &model.ActivityEvent{EventType: model.EventVisit, Page: "/"}))
	require.NoError(t, r.activity.Append(ctx, &model.ActivityEvent{EventType: model.EventVisit, Page: "/music"}))

	events, err := r.activity.Recent(ctx, model.EventVisit, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "/music", events[0].Page)
}
