package catalog

import (
	"context"
	"strings"
	"time"

	"hastingtx/metrics"
	"hastingtx/model"
)

// DefaultRecentLimit bounds each list in RecentActivity when no limit is
// given.
const DefaultRecentLimit = 5

// Activity is the recent-activity report.
type Activity struct {
	Uploads []model.Song          `json:"uploads"`
	Ratings []model.RecentRating  `json:"ratings"`
	Events  []model.ActivityEvent `json:"events"`
}

// RecordRating stores origin's vote on songID.
func (c *Catalog) RecordRating(ctx context.Context, songID int64, origin string, score int) (summary model.RatingSummary, err error) {
	defer observe("record_rating", time.Now(), &err)
	return c.ratings.RecordRating(ctx, songID, origin, score)
}

// RatingSummary returns the vote count and, past the threshold, the mean.
func (c *Catalog) RatingSummary(ctx context.Context, songID int64) (summary model.RatingSummary, err error) {
	defer observe("rating_summary", time.Now(), &err)
	return c.ratings.RatingSummary(ctx, songID)
}

// OriginRating returns origin's current vote on songID, if any.
func (c *Catalog) OriginRating(ctx context.Context, songID int64, origin string) (score int, ok bool, err error) {
	defer observe("origin_rating", time.Now(), &err)
	return c.ratings.OriginRating(ctx, songID, origin)
}

func (c *Catalog) recordSongEvent(ctx context.Context, t model.EventType, songID int64, origin string) error {
	event := &model.ActivityEvent{EventType: t, Origin: origin, SongID: &songID}
	if err := c.repos.Activity.RecordSongEvent(ctx, event); err != nil {
		return err
	}
	metrics.SongEvents.WithLabelValues(string(t)).Inc()
	return nil
}

// RecordPlay counts a listen of songID and logs the event.
func (c *Catalog) RecordPlay(ctx context.Context, songID int64, origin string) (err error) {
	defer observe("record_play", time.Now(), &err)
	return c.recordSongEvent(ctx, model.EventPlay, songID, origin)
}

// RecordDownload counts a download of songID and logs the event.
func (c *Catalog) RecordDownload(ctx context.Context, songID int64, origin string) (err error) {
	defer observe("record_download", time.Now(), &err)
	return c.recordSongEvent(ctx, model.EventDownload, songID, origin)
}

// maxPageLen is the width of the activity page column, in characters.
const maxPageLen = 255

// RecordVisit logs a page view.
func (c *Catalog) RecordVisit(ctx context.Context, origin, page string) (err error) {
	defer observe("record_visit", time.Now(), &err)
	page = strings.TrimSpace(page)
	if r := []rune(page); len(r) > maxPageLen {
		page = string(r[:maxPageLen])
	}
	if err = c.repos.Activity.Append(ctx, &model.ActivityEvent{EventType: model.EventVisit, Origin: origin, Page: page}); err != nil {
		return err
	}
	metrics.SongEvents.WithLabelValues(string(model.EventVisit)).Inc()
	return nil
}

// RecentActivity returns the latest uploads, votes and events.
func (c *Catalog) RecentActivity(ctx context.Context, limit int) (out Activity, err error) {
	defer observe("recent_activity", time.Now(), &err)
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if out.Uploads, err = c.repos.Songs.ListRecent(ctx, limit); err != nil {
		return out, err
	}
	if out.Ratings, err = c.repos.Ratings.Recent(ctx, limit); err != nil {
		return out, err
	}
	if out.Events, err = c.repos.Activity.Recent(ctx, "", limit); err != nil {
		return out, err
	}
	return out, nil
}
