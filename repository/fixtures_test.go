package repository

import (
	"context"
	"fmt"
	"testing"

	"hastingtx/db/dbtest"
	"hastingtx/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type repos struct {
	db        *gorm.DB
	songs     SongRepository
	playlists PlaylistRepository
	genres    GenreRepository
	tags      TagRepository
	ratings   RatingRepository
	activity  ActivityRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	gormDB := dbtest.Open(t)
	all := NewGormRepositories(gormDB)
	return repos{
		db:        gormDB,
		songs:     all.Songs,
		playlists: all.Playlists,
		genres:    all.Genres,
		tags:      all.Tags,
		ratings:   all.Ratings,
		activity:  all.Activity,
	}
}

var songSeq int

func addSong(t *testing.T, r repos, s model.Song) *model.Song {
	t.Helper()
	songSeq++
	if s.Identifier == "" {
		s.Identifier = fmt.Sprintf("song-%d", songSeq)
	}
	if s.Title == "" {
		s.Title = s.Identifier
	}
	require.NoError(t, r.songs.Create(context.Background(), &s))
	return &s
}
