package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Songs     SongRepository
	Playlists PlaylistRepository
	Genres    GenreRepository
	Tags      TagRepository
	Ratings   RatingRepository
	Activity  ActivityRepository

	db *gorm.DB
}

// NewGormRepositories builds the GORM implementation of every repository.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Songs:     NewGormSongRepository(db),
		Playlists: NewGormPlaylistRepository(db),
		Genres:    NewGormGenreRepository(db),
		Tags:      NewGormTagRepository(db),
		Ratings:   NewGormRatingRepository(db),
		Activity:  NewGormActivityRepository(db),
		db:        db,
	}
}

// Transaction runs fn with repositories bound to one transaction, committing
// when fn returns nil. Repository methods that open their own transaction
// nest inside it as savepoints.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormRepositories(tx))
	})
}
