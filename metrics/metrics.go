// Package metrics holds the catalog's Prometheus instruments.
package metrics

import (
	"errors"
	"time"

	"hastingtx/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_operation_duration_seconds",
			Help:    "Duration of catalog operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_operation_errors_total",
			Help: "Catalog operations that returned an error, by error kind",
		},
		[]string{"operation", "kind"},
	)

	RatingsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_ratings_recorded_total",
			Help: "Votes written through RecordRating",
		},
	)

	SongEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_song_events_total",
			Help: "Activity events recorded, by type",
		},
		[]string{"event_type"},
	)

	RowsRewritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_maintenance_rows_rewritten_total",
			Help: "Song rows changed by maintenance repairs",
		},
		[]string{"operation"},
	)

	RatingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rating_cache_lookups_total",
			Help: "Rating summary cache lookups, by result",
		},
		[]string{"result"}, // "hit", "miss"
	)
)

// ErrorKind buckets err into the domain taxonomy for the errors counter.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, model.ErrCycle):
		return "cycle"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	}
	return "internal"
}

// RecordOperation observes one finished operation.
func RecordOperation(operation string, duration time.Duration, err error) {
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		OperationErrors.WithLabelValues(operation, ErrorKind(err)).Inc()
	}
}

// RecordCacheLookup counts a rating cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RatingCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	RatingCacheLookups.WithLabelValues("miss").Inc()
}
