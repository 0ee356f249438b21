package model

import "time"

// Song is a catalog entry backed by one audio file.
//
// Genre is the legacy free-text column; GenreID points at the normalized
// genres table and wins whenever it is set. FixCase rewrites the text column
// and re-links GenreID so the two agree again.
type Song struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Identifier    string     `json:"identifier" gorm:"size:191;uniqueIndex;not null"`
	Title         string     `json:"title" gorm:"size:255;not null"`
	Artist        string     `json:"artist" gorm:"size:255"`
	Album         string     `json:"album" gorm:"size:255;index"`
	Genre         string     `json:"genre" gorm:"size:100"`
	GenreID       *int64     `json:"genreId,omitempty" gorm:"index"`
	Tags          []Tag      `json:"tags,omitempty" gorm:"many2many:song_tags;"`
	Description   string     `json:"description,omitempty" gorm:"type:text"`
	Lyrics        string     `json:"lyrics,omitempty" gorm:"type:text"`
	Filename      string     `json:"filename" gorm:"size:255;index"`
	FileSize      int64      `json:"fileSize"`
	Duration      int        `json:"duration"` // seconds
	CoverArt      string     `json:"coverArt,omitempty" gorm:"size:255"`
	Composer      string     `json:"composer,omitempty" gorm:"size:255"`
	Lyricist      string     `json:"lyricist,omitempty" gorm:"size:255"`
	RecordingDate *time.Time `json:"recordingDate,omitempty"`
	ListenCount   int64      `json:"listenCount" gorm:"not null;default:0"`
	DownloadCount int64      `json:"downloadCount" gorm:"not null;default:0"`
	CreatedAt     time.Time  `json:"uploadDate"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TableName pins the table name.
func (Song) TableName() string {
	return "songs"
}

// SongTag is the join row between songs and tags.
type SongTag struct {
	SongID int64 `gorm:"primaryKey"`
	TagID  int64 `gorm:"primaryKey;index"`
}

func (SongTag) TableName() string {
	return "song_tags"
}

// AlbumCount is one distinct album value with the number of songs on it.
type AlbumCount struct {
	Album string `json:"album"`
	Songs int64  `json:"songs"`
}
