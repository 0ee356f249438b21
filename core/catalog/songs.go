package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"hastingtx/core/utils"
	"hastingtx/core/validate"
	"hastingtx/model"
	"hastingtx/repository"
)

// SongInput describes a new song.
type SongInput struct {
	Identifier    string     `json:"identifier" validate:"max=191"`
	Title         string     `json:"title" validate:"required,max=255"`
	Artist        string     `json:"artist" validate:"max=255"`
	Album         string     `json:"album" validate:"max=255"`
	Genre         string     `json:"genre" validate:"max=100"`
	Description   string     `json:"description"`
	Lyrics        string     `json:"lyrics"`
	Filename      string     `json:"filename" validate:"max=255"`
	FileSize      int64      `json:"fileSize" validate:"min=0"`
	Duration      int        `json:"duration" validate:"min=0"`
	CoverArt      string     `json:"coverArt" validate:"max=255"`
	Composer      string     `json:"composer" validate:"max=255"`
	Lyricist      string     `json:"lyricist" validate:"max=255"`
	RecordingDate *time.Time `json:"recordingDate"`
	Tags          []string   `json:"tags"`
}

// SongUpdate changes song metadata. Nil fields are left alone.
type SongUpdate struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=255"`
	Artist      *string   `json:"artist" validate:"omitempty,max=255"`
	Album       *string   `json:"album" validate:"omitempty,max=255"`
	Genre       *string   `json:"genre" validate:"omitempty,max=100"`
	Description *string   `json:"description"`
	Lyrics      *string   `json:"lyrics"`
	CoverArt    *string   `json:"coverArt" validate:"omitempty,max=255"`
	Composer    *string   `json:"composer" validate:"omitempty,max=255"`
	Lyricist    *string   `json:"lyricist" validate:"omitempty,max=255"`
	Tags        *[]string `json:"tags"`
}

// Orders accepted by ListSongs.
const (
	SongOrderID      = "id"
	SongOrderTitle   = "title"
	SongOrderDate    = "date"
	SongOrderAlbum   = "album"
	SongOrderListens = "listens"
)

// linkGenre sets the genre text and link of song from name. A name that
// matches no Genre row is kept as text only.
func (c *Catalog) linkGenre(ctx context.Context, song *model.Song, name string) error {
	name = strings.TrimSpace(name)
	song.Genre, song.GenreID = name, nil
	if name == "" {
		return nil
	}
	g, err := c.repos.Genres.GetByName(ctx, name)
	switch {
	case err == nil:
		song.Genre, song.GenreID = g.Name, &g.ID
	case !errors.Is(err, model.ErrNotFound):
		return err
	}
	return nil
}

// CreateSong validates in and stores a new song. An empty identifier is
// derived from the title.
func (c *Catalog) CreateSong(ctx context.Context, in SongInput) (song *model.Song, err error) {
	defer observe("create_song", time.Now(), &err)

	in.Title = strings.TrimSpace(in.Title)
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err = validate.Struct(&in); err != nil {
		return nil, err
	}

	identifier := in.Identifier
	if identifier == "" {
		if identifier, err = utils.GenerateIdentifier(ctx, in.Title, c.repos.Songs.IdentifierExists); err != nil {
			return nil, err
		}
	} else if utils.Slugify(identifier) != identifier {
		return nil, model.NewValidation("identifier", "%q is not URL-safe", identifier)
	}

	song = &model.Song{
		Identifier:    identifier,
		Title:         in.Title,
		Artist:        strings.TrimSpace(in.Artist),
		Album:         strings.TrimSpace(in.Album),
		Description:   in.Description,
		Lyrics:        in.Lyrics,
		Filename:      in.Filename,
		FileSize:      in.FileSize,
		Duration:      in.Duration,
		CoverArt:      in.CoverArt,
		Composer:      in.Composer,
		Lyricist:      in.Lyricist,
		RecordingDate: in.RecordingDate,
	}
	if err = c.linkGenre(ctx, song, in.Genre); err != nil {
		return nil, err
	}
	err = c.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Songs.Create(ctx, song); err != nil {
			return err
		}
		if len(in.Tags) == 0 {
			return nil
		}
		tags, err := tx.Tags.SetSongTags(ctx, song.ID, in.Tags)
		song.Tags = tags
		return err
	})
	if err != nil {
		return nil, err
	}
	return song, nil
}

// GetSong returns a song with its tags.
func (c *Catalog) GetSong(ctx context.Context, id int64) (song *model.Song, err error) {
	defer observe("get_song", time.Now(), &err)
	return c.repos.Songs.GetByID(ctx, id)
}

// GetSongByIdentifier returns a song by its URL identifier.
func (c *Catalog) GetSongByIdentifier(ctx context.Context, identifier string) (song *model.Song, err error) {
	defer observe("get_song", time.Now(), &err)
	return c.repos.Songs.GetByIdentifier(ctx, identifier)
}

// UpdateSong applies in to song id and returns the stored result.
func (c *Catalog) UpdateSong(ctx context.Context, id int64, in SongUpdate) (song *model.Song, err error) {
	defer observe("update_song", time.Now(), &err)

	if err = validate.Struct(&in); err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, model.NewValidation("title", "is required")
	}
	if song, err = c.repos.Songs.GetByID(ctx, id); err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&song.Title, in.Title)
	set(&song.Artist, in.Artist)
	set(&song.Album, in.Album)
	set(&song.CoverArt, in.CoverArt)
	set(&song.Composer, in.Composer)
	set(&song.Lyricist, in.Lyricist)
	if in.Description != nil {
		song.Description = *in.Description
	}
	if in.Lyrics != nil {
		song.Lyrics = *in.Lyrics
	}
	if in.Genre != nil {
		if err = c.linkGenre(ctx, song, *in.Genre); err != nil {
			return nil, err
		}
	}

	err = c.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Songs.Update(ctx, song); err != nil {
			return err
		}
		if in.Tags == nil {
			return nil
		}
		_, err := tx.Tags.SetSongTags(ctx, id, *in.Tags)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.repos.Songs.GetByID(ctx, id)
}

// DeleteSong removes a song with its memberships, votes, tags and events.
func (c *Catalog) DeleteSong(ctx context.Context, id int64) (err error) {
	defer observe("delete_song", time.Now(), &err)
	if err = c.repos.Songs.Delete(ctx, id); err != nil {
		return err
	}
	c.ratings.Forget(ctx, id)
	return nil
}

// ListSongs returns songs in one of the SongOrder* orders, at most limit
// when limit is positive.
func (c *Catalog) ListSongs(ctx context.Context, order string, limit int) (songs []model.Song, err error) {
	defer observe("list_songs", time.Now(), &err)

	var less func(a, b model.Song) bool
	switch order {
	case "", SongOrderID:
	case SongOrderTitle:
		less = func(a, b model.Song) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SongOrderDate:
		less = func(a, b model.Song) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SongOrderAlbum:
		less = func(a, b model.Song) bool { return strings.ToLower(a.Album) < strings.ToLower(b.Album) }
	case SongOrderListens:
		less = func(a, b model.Song) bool { return a.ListenCount > b.ListenCount }
	default:
		return nil, model.NewValidation("order", "must be one of id, title, date, album, listens; got %q", order)
	}

	if songs, err = c.repos.Songs.List(ctx); err != nil {
		return nil, err
	}
	if less != nil {
		sort.SliceStable(songs, func(i, j int) bool { return less(songs[i], songs[j]) })
	}
	if limit > 0 && len(songs) > limit {
		songs = songs[:limit]
	}
	return songs, nil
}

// SearchSongs matches query against title, artist, album and description.
func (c *Catalog) SearchSongs(ctx context.Context, query string, limit int) (songs []model.Song, err error) {
	defer observe("search_songs", time.Now(), &err)
	if strings.TrimSpace(query) == "" {
		return nil, model.NewValidation("query", "is required")
	}
	return c.repos.Songs.Search(ctx, query, limit)
}

// SongsMissing lists songs with no value for field. "cover" is accepted for
// cover_art.
func (c *Catalog) SongsMissing(ctx context.Context, field string, limit int) (songs []model.Song, err error) {
	defer observe("songs_missing", time.Now(), &err)
	if field == "cover" {
		field = model.FieldCoverArt
	}
	return c.repos.Songs.ListMissing(ctx, field, limit)
}

// SetSongTags replaces the tags of a song.
func (c *Catalog) SetSongTags(ctx context.Context, songID int64, names []string) (tags []model.Tag, err error) {
	defer observe("set_song_tags", time.Now(), &err)
	return c.repos.Tags.SetSongTags(ctx, songID, names)
}

// Tags lists every tag with its song count.
func (c *Catalog) Tags(ctx context.Context) (tags []model.TagCount, err error) {
	defer observe("list_tags", time.Now(), &err)
	return c.repos.Tags.List(ctx)
}

// Albums lists distinct album values with their song counts.
func (c *Catalog) Albums(ctx context.Context) (albums []model.AlbumCount, err error) {
	defer observe("list_albums", time.Now(), &err)
	return c.repos.Songs.DistinctAlbums(ctx)
}

// SetAlbum assigns album to every song in ids, all or none.
func (c *Catalog) SetAlbum(ctx context.Context, ids []int64, album string) (rows int64, err error) {
	defer observe("set_album", time.Now(), &err)
	if len(ids) == 0 {
		return 0, model.NewValidation("songIds", "at least one song is required")
	}
	return c.repos.Songs.SetAlbum(ctx, ids, strings.TrimSpace(album))
}

// SetGenre links every song in ids to the genre called name. An unknown
// name is created when create is set and reported as NotFoundError
// otherwise. An empty name clears the genre.
func (c *Catalog) SetGenre(ctx context.Context, ids []int64, name string, create bool) (rows int64, err error) {
	defer observe("set_genre", time.Now(), &err)
	if len(ids) == 0 {
		return 0, model.NewValidation("songIds", "at least one song is required")
	}

	var g *model.Genre
	if name = strings.TrimSpace(name); name != "" {
		g, err = c.repos.Genres.GetByName(ctx, name)
		if errors.Is(err, model.ErrNotFound) && create {
			g, err = c.genres.CreateGenre(ctx, name, "", "")
		}
		if err != nil {
			return 0, err
		}
	}
	return c.repos.Songs.SetGenre(ctx, ids, g)
}

// ExportSongs returns every song with its tags, ordered by id.
func (c *Catalog) ExportSongs(ctx context.Context) (songs []model.Song, err error) {
	defer observe("export_songs", time.Now(), &err)
	return c.repos.Songs.ListWithTags(ctx)
}
