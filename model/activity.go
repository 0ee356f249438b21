package model

import "time"

// EventType classifies an activity event.
type EventType string

const (
	EventVisit    EventType = "visit"
	EventPlay     EventType = "play"
	EventDownload EventType = "download"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventVisit || t == EventPlay || t == EventDownload
}

// ActivityEvent is an append-only record of something a visitor did.
type ActivityEvent struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EventType EventType `json:"eventType" gorm:"size:20;not null;index"`
	Origin    string    `json:"-" gorm:"size:64"`
	SongID    *int64    `json:"songId,omitempty" gorm:"index"`
	Page      string    `json:"page,omitempty" gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}

// AllModels lists every persisted type, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Genre{},
		&Tag{},
		&Song{},
		&SongTag{},
		&Playlist{},
		&PlaylistSong{},
		&Rating{},
		&ActivityEvent{},
	}
}
