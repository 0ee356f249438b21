package repository

import (
	"context"
	"fmt"

	"hastingtx/model"

	"gorm.io/gorm"
)

// ActivityRepository is the data access interface for the append-only
// activity log and the song counters it drives.
type ActivityRepository interface {
	Append(ctx context.Context, event *model.ActivityEvent) error
	RecordSongEvent(ctx context.Context, event *model.ActivityEvent) error
	Recent(ctx context.Context, eventType model.EventType, limit int) ([]model.ActivityEvent, error)
	CountByType(ctx context.Context) (map[model.EventType]int64, error)
}

type gormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a GORM activity repository.
func NewGormActivityRepository(db *gorm.DB) ActivityRepository {
	return &gormActivityRepository{db: db}
}

// Append writes an event without touching any counter.
func (r *gormActivityRepository) Append(ctx context.Context, event *model.ActivityEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("append %s event: %w", event.EventType, err)
	}
	return nil
}

// counterFor maps song events onto the song column they increment.
func counterFor(t model.EventType) string {
	switch t {
	case model.EventPlay:
		return "listen_count"
	case model.EventDownload:
		return "download_count"
	}
	return ""
}

// RecordSongEvent appends a play or download event and bumps the matching
// counter with a relative update, both in one transaction.
func (r *gormActivityRepository) RecordSongEvent(ctx context.Context, event *model.ActivityEvent) error {
	column := counterFor(event.EventType)
	if column == "" || event.SongID == nil {
		return model.NewValidation("eventType", "%q is not a song event", event.EventType)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Song{}).
			Where("id = ?", *event.SongID).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment %s: %w", column, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.NewNotFound("song", *event.SongID)
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("append %s event: %w", event.EventType, err)
		}
		return nil
	})
}

// Recent returns the latest events, newest first. An empty eventType
// matches every type.
func (r *gormActivityRepository) Recent(ctx context.Context, eventType model.EventType, limit int) ([]model.ActivityEvent, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []model.ActivityEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return events, nil
}

func (r *gormActivityRepository) CountByType(ctx context.Context) (map[model.EventType]int64, error) {
	var rows []struct {
		EventType model.EventType
		Events    int64
	}
	err := r.db.WithContext(ctx).Model(&model.ActivityEvent{}).
		Select("event_type, COUNT(*) AS events").
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count activity: %w", err)
	}
	out := make(map[model.EventType]int64, len(rows))
	for _, row := range rows {
		out[row.EventType] = row.Events
	}
	return out, nil
}
