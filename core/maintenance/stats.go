package maintenance

import (
	"context"
	"math"

	"hastingtx/model"
)

// Metrics accepted by TopBy.
const (
	MetricListens   = "listens"
	MetricDownloads = "downloads"
	MetricRating    = "rating"
)

// DefaultTopLimit is used when TopBy is called with a non-positive limit.
const DefaultTopLimit = 10

// TopEntry is one row of a top-N report. Votes is only set for the rating
// metric.
type TopEntry struct {
	Song  model.Song `json:"song"`
	Value float64    `json:"value"`
	Votes int64      `json:"votes,omitempty"`
}

// MissingField is the number of songs lacking one optional field.
type MissingField struct {
	Field   string  `json:"field"`
	Missing int64   `json:"missing"`
	Total   int64   `json:"total"`
	Percent float64 `json:"percent"`
}

// Overview aggregates catalog-wide counts and sums.
func (e *Engine) Overview(ctx context.Context) (model.Overview, error) {
	var out model.Overview

	totals, err := e.repos.Songs.Totals(ctx)
	if err != nil {
		return out, err
	}
	out.SongTotals = totals

	if out.Playlists, err = e.repos.Playlists.Count(ctx); err != nil {
		return out, err
	}
	if out.Genres, err = e.repos.Genres.Count(ctx); err != nil {
		return out, err
	}
	if out.Tags, err = e.repos.Tags.Count(ctx); err != nil {
		return out, err
	}

	count, rated, avg, err := e.repos.Ratings.Totals(ctx)
	if err != nil {
		return out, err
	}
	out.Ratings, out.RatedSongs, out.AverageRating = count, rated, round2(avg)

	if out.EventsByType, err = e.repos.Activity.CountByType(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// TopBy returns the top limit songs by listens, downloads or mean rating.
// The rating metric only considers songs with at least one vote.
func (e *Engine) TopBy(ctx context.Context, metric string, limit int) ([]TopEntry, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	switch metric {
	case MetricListens, MetricDownloads:
		column := "listen_count"
		if metric == MetricDownloads {
			column = "download_count"
		}
		songs, err := e.repos.Songs.TopByCounter(ctx, column, limit)
		if err != nil {
			return nil, err
		}
		out := make([]TopEntry, len(songs))
		for i, s := range songs {
			value := s.ListenCount
			if metric == MetricDownloads {
				value = s.DownloadCount
			}
			out[i] = TopEntry{Song: s, Value: float64(value)}
		}
		return out, nil

	case MetricRating:
		aggs, err := e.repos.Ratings.TopAggregates(ctx, 1, limit)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, len(aggs))
		for i, a := range aggs {
			ids[i] = a.SongID
		}
		songs, err := e.repos.Songs.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[int64]model.Song, len(songs))
		for _, s := range songs {
			byID[s.ID] = s
		}

		out := make([]TopEntry, 0, len(aggs))
		for _, a := range aggs {
			s, ok := byID[a.SongID]
			if !ok {
				continue
			}
			out = append(out, TopEntry{Song: s, Value: round2(a.Average), Votes: a.Count})
		}
		return out, nil

	default:
		return nil, model.NewValidation("metric", "must be one of listens, downloads, rating; got %q", metric)
	}
}

// MissingFieldsSummary counts songs lacking each optional field, in the
// order of model.MissingFields.
func (e *Engine) MissingFieldsSummary(ctx context.Context) ([]MissingField, error) {
	totals, err := e.repos.Songs.Totals(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := e.repos.Songs.CountMissing(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MissingField, len(model.MissingFields))
	for i, field := range model.MissingFields {
		out[i] = MissingField{Field: field, Missing: counts[field], Total: totals.Songs}
		if totals.Songs > 0 {
			out[i].Percent = math.Round(float64(counts[field])*1000/float64(totals.Songs)) / 10
		}
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
