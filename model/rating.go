package model

import "time"

// Rating is one origin's vote on a song. (SongID, IPAddress) is unique.
type Rating struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SongID    int64     `json:"songId" gorm:"not null;uniqueIndex:idx_rating_song_origin"`
	IPAddress string    `json:"-" gorm:"size:64;not null;uniqueIndex:idx_rating_song_origin"`
	Rating    int       `json:"rating" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Rating) TableName() string {
	return "ratings"
}

// RatingSummary is the vote count and average for one song. Average is only
// meaningful when Visible is true.
type RatingSummary struct {
	SongID  int64   `json:"songId"`
	Count   int64   `json:"count"`
	Average float64 `json:"average,omitempty"`
	Visible bool    `json:"visible"`
}

// Mean returns the average and true once enough votes exist, otherwise 0 and
// false ("insufficient data").
func (s RatingSummary) Mean() (float64, bool) {
	if !s.Visible {
		return 0, false
	}
	return s.Average, true
}

// RecentRating is a rating joined with the rated song's title.
type RecentRating struct {
	SongID    int64     `json:"songId"`
	Title     string    `json:"title"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
