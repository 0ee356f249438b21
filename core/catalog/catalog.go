// Package catalog is the single entry point the CLI and HTTP server use. It
// wires the rating, playlist, genre and maintenance services over one set of
// repositories and records a duration and error metric for every call.
package catalog

import (
	"time"

	"hastingtx/cache"
	"hastingtx/config"
	"hastingtx/core/genre"
	"hastingtx/core/maintenance"
	"hastingtx/core/playlist"
	"hastingtx/core/rating"
	"hastingtx/logger"
	"hastingtx/metrics"
	"hastingtx/repository"

	"gorm.io/gorm"
)

// Options tune catalog policies.
type Options struct {
	RatingMinVotes   int
	SurfaceAncestors bool
}

// Catalog exposes every catalog operation.
type Catalog struct {
	repos       *repository.Repositories
	ratings     *rating.Service
	playlists   *playlist.Service
	genres      *genre.Service
	maintenance *maintenance.Engine
}

// New builds a catalog over repos. A nil summaries cache disables caching.
func New(repos *repository.Repositories, summaries cache.SummaryCache, opts Options) *Catalog {
	return &Catalog{
		repos:       repos,
		ratings:     rating.NewService(repos.Songs, repos.Ratings, summaries, opts.RatingMinVotes),
		playlists:   playlist.NewService(repos.Songs, repos.Playlists, repos.Genres),
		genres:      genre.NewService(repos.Genres, opts.SurfaceAncestors),
		maintenance: maintenance.NewEngine(repos),
	}
}

// NewFromConfig builds a catalog over a GORM handle using the policies in cfg.
func NewFromConfig(gormDB *gorm.DB, cfg *config.Config, summaries cache.SummaryCache) *Catalog {
	return New(repository.NewGormRepositories(gormDB), summaries, Options{
		RatingMinVotes:   cfg.RatingMinVotes,
		SurfaceAncestors: cfg.GenreSurfaceAncestors,
	})
}

// MinVotes returns the rating visibility threshold in effect.
func (c *Catalog) MinVotes() int {
	return c.ratings.MinVotes()
}

// observe is deferred by every operation with a pointer to its named error.
func observe(operation string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	elapsed := time.Since(start)
	metrics.RecordOperation(operation, elapsed, err)

	switch kind := metrics.ErrorKind(err); kind {
	case "":
		logger.Debug("catalog operation",
			logger.String("operation", operation),
			logger.Duration("elapsed", elapsed))
	case "internal":
		logger.Error("catalog operation failed",
			logger.String("operation", operation),
			logger.Duration("elapsed", elapsed),
			logger.ErrorField(err))
	default:
		logger.Debug("catalog operation rejected",
			logger.String("operation", operation),
			logger.String("kind", kind),
			logger.ErrorField(err))
	}
}
