// Package rating records per-origin votes and reports their aggregate.
package rating

import (
	"context"
	"errors"

	"hastingtx/cache"
	"hastingtx/core/validate"
	"hastingtx/logger"
	"hastingtx/metrics"
	"hastingtx/model"
	"hastingtx/repository"
)

// DefaultMinVotes is the vote count at which an average becomes visible.
const DefaultMinVotes = 4

type vote struct {
	Origin string `json:"origin" validate:"required,max=64"`
	Score  int    `json:"score" validate:"min=1,max=10"`
}

// Service is the rating aggregator.
type Service struct {
	songs    repository.SongRepository
	ratings  repository.RatingRepository
	cache    cache.SummaryCache
	minVotes int
}

// NewService creates a rating service. A nil cache disables caching and a
// non-positive minVotes selects DefaultMinVotes.
func NewService(songs repository.SongRepository, ratings repository.RatingRepository, c cache.SummaryCache, minVotes int) *Service {
	if c == nil {
		c = cache.NewNoopSummaryCache()
	}
	if minVotes <= 0 {
		minVotes = DefaultMinVotes
	}
	return &Service{songs: songs, ratings: ratings, cache: c, minVotes: minVotes}
}

// MinVotes returns the visibility threshold in effect.
func (s *Service) MinVotes() int {
	return s.minVotes
}

// RecordRating stores origin's score for songID, replacing any earlier vote
// from the same origin, and returns the summary after the write.
func (s *Service) RecordRating(ctx context.Context, songID int64, origin string, score int) (model.RatingSummary, error) {
	if err := validate.Struct(&vote{Origin: origin, Score: score}); err != nil {
		return model.RatingSummary{}, err
	}
	if _, err := s.songs.GetByID(ctx, songID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.RatingSummary{}, &model.ValidationError{Field: "songId", Message: "song does not exist", Err: err}
		}
		return model.RatingSummary{}, err
	}

	if err := s.ratings.Upsert(ctx, songID, origin, score); err != nil {
		return model.RatingSummary{}, err
	}
	s.cache.Invalidate(ctx, songID)
	metrics.RatingsRecorded.Inc()

	summary, err := s.load(ctx, songID)
	if err != nil {
		return model.RatingSummary{}, err
	}
	logger.Debug("rating recorded",
		logger.Int64("songId", songID),
		logger.Int("score", score),
		logger.Int64("count", summary.Count))
	return summary, nil
}

// RatingSummary returns the vote count for songID and, once the count
// reaches the threshold, the average.
func (s *Service) RatingSummary(ctx context.Context, songID int64) (model.RatingSummary, error) {
	if cached, ok := s.cache.Get(ctx, songID); ok {
		metrics.RecordCacheLookup(true)
		return s.present(cached), nil
	}
	metrics.RecordCacheLookup(false)
	return s.load(ctx, songID)
}

// OriginRating returns origin's current vote on songID, if any.
func (s *Service) OriginRating(ctx context.Context, songID int64, origin string) (int, bool, error) {
	r, err := s.ratings.Get(ctx, songID, origin)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return r.Rating, true, nil
}

// Forget drops any cached summary for songID.
func (s *Service) Forget(ctx context.Context, songID int64) {
	s.cache.Invalidate(ctx, songID)
}

// load reads the aggregate from the store. The generation is taken first so
// a vote landing during the query keeps the result out of the cache.
func (s *Service) load(ctx context.Context, songID int64) (model.RatingSummary, error) {
	gen := s.cache.Generation(ctx, songID)
	agg, err := s.ratings.Aggregate(ctx, songID)
	if err != nil {
		return model.RatingSummary{}, err
	}
	raw := model.RatingSummary{SongID: songID, Count: agg.Count, Average: agg.Average}
	s.cache.Set(ctx, raw, gen)
	return s.present(raw), nil
}

// present applies the visibility threshold. Below it the average is
// withheld so it cannot leak through serialization either.
func (s *Service) present(raw model.RatingSummary) model.RatingSummary {
	raw.Visible = raw.Count >= int64(s.minVotes)
	if !raw.Visible {
		raw.Average = 0
	}
	return raw
}
