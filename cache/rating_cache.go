package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hastingtx/logger"
	"hastingtx/model"

	"github.com/go-redis/redis/v8"
)

// SummaryCache keeps rating summaries between votes. Implementations
// swallow backend errors: a cache failure only costs a database query.
//
// Every Invalidate bumps a per-song generation. A reader takes the
// generation before it queries the database and hands it back to Set, which
// stores the summary only if no vote was invalidated in between.
type SummaryCache interface {
	Get(ctx context.Context, songID int64) (model.RatingSummary, bool)
	// Generation returns the song's current generation, or a negative value
	// when it cannot be read.
	Generation(ctx context.Context, songID int64) int64
	Set(ctx context.Context, summary model.RatingSummary, gen int64)
	Invalidate(ctx context.Context, songID int64)
}

// SummaryKey is the Redis key of a song's cached summary.
func SummaryKey(songID int64) string {
	return fmt.Sprintf("rating:summary:%d", songID)
}

// GenerationKey is the Redis key of a song's invalidation counter.
func GenerationKey(songID int64) string {
	return fmt.Sprintf("rating:gen:%d", songID)
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache caches summaries in Redis for ttl.
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	return &redisSummaryCache{client: client, ttl: ttl}
}

func (c *redisSummaryCache) Get(ctx context.Context, songID int64) (model.RatingSummary, bool) {
	var summary model.RatingSummary
	raw, err := c.client.Get(ctx, SummaryKey(songID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("rating cache read failed", logger.Int64("songId", songID), logger.ErrorField(err))
		}
		return summary, false
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		logger.Warn("rating cache entry corrupt", logger.Int64("songId", songID), logger.ErrorField(err))
		return summary, false
	}
	return summary, true
}

func (c *redisSummaryCache) Generation(ctx context.Context, songID int64) int64 {
	gen, err := c.client.Get(ctx, GenerationKey(songID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		logger.Warn("rating cache generation read failed", logger.Int64("songId", songID), logger.ErrorField(err))
		return -1
	}
	return gen
}

// Set writes under WATCH on the generation key, so a concurrent Invalidate
// aborts the transaction.
func (c *redisSummaryCache) Set(ctx context.Context, summary model.RatingSummary, gen int64) {
	if gen < 0 {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	genKey := GenerationKey(summary.SongID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, SummaryKey(summary.SongID), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
	default:
		logger.Warn("rating cache write failed", logger.Int64("songId", summary.SongID), logger.ErrorField(err))
	}
}

func (c *redisSummaryCache) Invalidate(ctx context.Context, songID int64) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(songID))
		pipe.Del(ctx, SummaryKey(songID))
		return nil
	})
	if err != nil {
		logger.Warn("rating cache invalidate failed", logger.Int64("songId", songID), logger.ErrorField(err))
	}
}

var errStaleGeneration = errors.New("rating summary generation changed")

type noopSummaryCache struct{}

// NewNoopSummaryCache returns a cache that never hits.
func NewNoopSummaryCache() SummaryCache {
	return noopSummaryCache{}
}

func (noopSummaryCache) Get(context.Context, int64) (model.RatingSummary, bool) {
	return model.RatingSummary{}, false
}
func (noopSummaryCache) Generation(context.Context, int64) int64        { return -1 }
func (noopSummaryCache) Set(context.Context, model.RatingSummary, int64) {}
func (noopSummaryCache) Invalidate(context.Context, int64)               {}

// MemorySummaryCache is an in-process SummaryCache, used by tests and by
// single-process installs without Redis.
type MemorySummaryCache struct {
	mu      sync.Mutex
	entries map[int64]model.RatingSummary
	gens    map[int64]int64
}

// NewMemorySummaryCache creates an empty in-process cache.
func NewMemorySummaryCache() *MemorySummaryCache {
	return &MemorySummaryCache{
		entries: make(map[int64]model.RatingSummary),
		gens:    make(map[int64]int64),
	}
}

func (c *MemorySummaryCache) Get(_ context.Context, songID int64) (model.RatingSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[songID]
	return s, ok
}

func (c *MemorySummaryCache) Generation(_ context.Context, songID int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[songID]
}

func (c *MemorySummaryCache) Set(_ context.Context, summary model.RatingSummary, gen int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < 0 || c.gens[summary.SongID] != gen {
		return
	}
	c.entries[summary.SongID] = summary
}

func (c *MemorySummaryCache) Invalidate(_ context.Context, songID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[songID]++
	delete(c.entries, songID)
}
