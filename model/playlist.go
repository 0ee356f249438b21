package model

import "time"

// AllPlaylistIdentifier names the reserved full-catalog playlist.
const AllPlaylistIdentifier = "all"

// SortOrder controls how a playlist's songs are ordered.
type SortOrder string

const (
	SortManual SortOrder = "manual"
	SortTitle  SortOrder = "title"
	SortAlbum  SortOrder = "album"
)

// Valid reports whether s is one of the known orders.
func (s SortOrder) Valid() bool {
	switch s {
	case SortManual, SortTitle, SortAlbum:
		return true
	}
	return false
}

// Playlist is a named, ordered collection of songs.
type Playlist struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Identifier  string    `json:"identifier" gorm:"size:191;uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	SortOrder   SortOrder `json:"sortOrder" gorm:"size:20;not null;default:'manual'"`
	IsPublic    bool      `json:"isPublic" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Playlist) TableName() string {
	return "playlists"
}

// IsAll reports whether p is the reserved full-catalog playlist.
func (p *Playlist) IsAll() bool {
	return p.Identifier == AllPlaylistIdentifier
}

// PlaylistSong places a song in a playlist. Position is only meaningful for
// manual ordering and may be NULL.
type PlaylistSong struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaylistID int64     `json:"playlistId" gorm:"not null;uniqueIndex:idx_playlist_song"`
	SongID     int64     `json:"songId" gorm:"not null;uniqueIndex:idx_playlist_song;index"`
	Position   *int      `json:"position"`
	AddedAt    time.Time `json:"addedAt" gorm:"autoCreateTime"`
}

func (PlaylistSong) TableName() string {
	return "playlist_songs"
}

// PlaylistEntry is a song together with its membership row, if any.
type PlaylistEntry struct {
	Song     Song      `json:"song"`
	Position *int      `json:"position,omitempty"`
	AddedAt  time.Time `json:"addedAt"`
}
