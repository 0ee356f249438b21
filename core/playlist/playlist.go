// Package playlist resolves ordered song sequences for playlists, albums and
// genres, and manages playlist membership.
package playlist

import (
	"context"
	"errors"
	"strings"

	"hastingtx/core/utils"
	"hastingtx/core/validate"
	"hastingtx/model"
	"hastingtx/repository"
)

// Service is the playlist composer.
type Service struct {
	songs     repository.SongRepository
	playlists repository.PlaylistRepository
	genres    repository.GenreRepository
}

// NewService creates a playlist service.
func NewService(songs repository.SongRepository, playlists repository.PlaylistRepository, genres repository.GenreRepository) *Service {
	return &Service{songs: songs, playlists: playlists, genres: genres}
}

// Summary is a playlist with its song count.
type Summary struct {
	model.Playlist
	Songs int64 `json:"songs"`
}

// ========== Resolution ==========

// ResolveOrder returns the songs of the playlist named by identifier in the
// playlist's sort order. The reserved "all" playlist always yields every
// song in the catalog exactly once.
func (s *Service) ResolveOrder(ctx context.Context, identifier string) ([]model.Song, error) {
	entries, _, err := s.ResolveEntries(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return songsOf(entries), nil
}

// ResolveEntries is ResolveOrder keeping positions and added times, plus
// the playlist itself.
func (s *Service) ResolveEntries(ctx context.Context, identifier string) ([]model.PlaylistEntry, *model.Playlist, error) {
	p, err := s.playlists.GetByIdentifier(ctx, identifier)
	if err != nil {
		if identifier != model.AllPlaylistIdentifier || !errors.Is(err, model.ErrNotFound) {
			return nil, nil, err
		}
		// Not seeded yet; "all" is still resolvable.
		p = &model.Playlist{Identifier: model.AllPlaylistIdentifier, Name: "All Songs", SortOrder: model.SortTitle, IsPublic: true}
	}

	var entries []model.PlaylistEntry
	if p.IsAll() {
		entries, err = s.allEntries(ctx, p.ID)
	} else {
		entries, err = s.playlists.Entries(ctx, p.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	SortEntries(entries, p.SortOrder)
	return entries, p, nil
}

// allEntries pairs every song with its row in the "all" playlist, if one
// was materialized. Songs without a row count as added at upload time.
func (s *Service) allEntries(ctx context.Context, playlistID int64) ([]model.PlaylistEntry, error) {
	songs, err := s.songs.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := map[int64]model.PlaylistSong{}
	if playlistID != 0 {
		memberships, err := s.playlists.Memberships(ctx, playlistID)
		if err != nil {
			return nil, err
		}
		for _, m := range memberships {
			rows[m.SongID] = m
		}
	}

	entries := make([]model.PlaylistEntry, len(songs))
	for i, song := range songs {
		entries[i] = model.PlaylistEntry{Song: song, AddedAt: song.CreatedAt}
		if row, ok := rows[song.ID]; ok {
			entries[i].Position = row.Position
			entries[i].AddedAt = row.AddedAt
		}
	}
	return entries, nil
}

// ResolveByAlbum returns the songs whose album matches name
// case-insensitively, in title order unless another order is given.
func (s *Service) ResolveByAlbum(ctx context.Context, name string, order ...model.SortOrder) ([]model.Song, error) {
	o, err := pickOrder(order)
	if err != nil {
		return nil, err
	}
	songs, err := s.songs.ListByAlbum(ctx, name)
	if err != nil {
		return nil, err
	}
	return sortSongs(songs, o), nil
}

// ResolveByGenre returns the songs in the genre called name, in title order
// unless another order is given. Songs not yet linked to a Genre row match
// on their legacy genre text.
func (s *Service) ResolveByGenre(ctx context.Context, name string, order ...model.SortOrder) ([]model.Song, error) {
	o, err := pickOrder(order)
	if err != nil {
		return nil, err
	}

	var genreID int64
	key := model.NameKey(name)
	g, err := s.genres.GetByName(ctx, name)
	switch {
	case err == nil:
		genreID, key = g.ID, g.NameKey
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}

	songs, err := s.songs.ListByGenre(ctx, genreID, key)
	if err != nil {
		return nil, err
	}
	return sortSongs(songs, o), nil
}

func pickOrder(order []model.SortOrder) (model.SortOrder, error) {
	if len(order) == 0 || order[0] == "" {
		return model.SortTitle, nil
	}
	if !order[0].Valid() {
		return "", model.NewValidation("order", "unknown sort order %q", order[0])
	}
	return order[0], nil
}

// sortSongs orders songs that have no membership rows. Manual order falls
// back to upload time.
func sortSongs(songs []model.Song, order model.SortOrder) []model.Song {
	entries := make([]model.PlaylistEntry, len(songs))
	for i, song := range songs {
		entries[i] = model.PlaylistEntry{Song: song, AddedAt: song.CreatedAt}
	}
	SortEntries(entries, order)
	return songsOf(entries)
}

func songsOf(entries []model.PlaylistEntry) []model.Song {
	songs := make([]model.Song, len(entries))
	for i, e := range entries {
		songs[i] = e.Song
	}
	return songs
}

// ========== Management ==========

// CreateInput describes a new playlist. An empty Identifier is derived
// from Name; an empty SortOrder means manual; a nil IsPublic means public.
type CreateInput struct {
	Identifier  string          `json:"identifier" validate:"max=191"`
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	SortOrder   model.SortOrder `json:"sortOrder" validate:"omitempty,sortorder"`
	IsPublic    *bool           `json:"isPublic"`
}

// CreatePlaylist validates in and stores a new playlist.
func (s *Service) CreatePlaylist(ctx context.Context, in CreateInput) (*model.Playlist, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	if in.SortOrder == "" {
		in.SortOrder = model.SortManual
	}

	identifier := in.Identifier
	switch {
	case identifier == model.AllPlaylistIdentifier:
		return nil, model.NewValidation("identifier", "%q is reserved", identifier)
	case identifier == "":
		var err error
		identifier, err = utils.GenerateIdentifier(ctx, in.Name, s.playlists.IdentifierExists)
		if err != nil {
			return nil, err
		}
	case utils.Slugify(identifier) != identifier:
		return nil, model.NewValidation("identifier", "%q is not URL-safe", identifier)
	}

	p := &model.Playlist{
		Identifier:  identifier,
		Name:        in.Name,
		Description: in.Description,
		SortOrder:   in.SortOrder,
		IsPublic:    in.IsPublic == nil || *in.IsPublic,
	}
	if err := s.playlists.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateInput changes the presentation of a playlist. Nil fields are left
// alone.
type UpdateInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	SortOrder   *model.SortOrder `json:"sortOrder" validate:"omitempty,sortorder"`
	IsPublic    *bool            `json:"isPublic"`
}

// UpdatePlaylist applies in to the playlist named by identifier.
func (s *Service) UpdatePlaylist(ctx context.Context, identifier string, in UpdateInput) (*model.Playlist, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, model.NewValidation("name", "is required")
	}
	p, err := s.playlists.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}
	if err := s.playlists.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePlaylist removes a playlist and its membership. "all" is refused.
func (s *Service) DeletePlaylist(ctx context.Context, identifier string) error {
	p, err := s.playlists.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	return s.playlists.Delete(ctx, p.ID)
}

// EnsureAllPlaylist seeds the reserved "all" playlist.
func (s *Service) EnsureAllPlaylist(ctx context.Context) (*model.Playlist, error) {
	return s.playlists.EnsureAll(ctx)
}

// List returns every playlist with its song count. "all" counts the whole
// catalog.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	playlists, err := s.playlists.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.playlists.SongCounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, len(playlists))
	for i, p := range playlists {
		out[i] = Summary{Playlist: p, Songs: counts[p.ID]}
		if p.IsAll() {
			totals, err := s.songs.Totals(ctx)
			if err != nil {
				return nil, err
			}
			out[i].Songs = totals.Songs
		}
	}
	return out, nil
}

// AddSong adds songID to the playlist at position, or at the end.
func (s *Service) AddSong(ctx context.Context, identifier string, songID int64, position *int) (*model.PlaylistSong, error) {
	if position != nil && *position < 0 {
		return nil, model.NewValidation("position", "must not be negative")
	}
	p, err := s.playlists.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.playlists.AddSong(ctx, p.ID, songID, position)
}

// RemoveSong drops songID from the playlist.
func (s *Service) RemoveSong(ctx context.Context, identifier string, songID int64) error {
	p, err := s.playlists.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	return s.playlists.RemoveSong(ctx, p.ID, songID)
}

// Reorder gives songIDs positions 1..n in one transaction.
func (s *Service) Reorder(ctx context.Context, identifier string, songIDs []int64) error {
	p, err := s.playlists.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	return s.playlists.Reorder(ctx, p.ID, songIDs)
}

// SetSongs replaces the playlist's membership with songIDs.
func (s *Service) SetSongs(ctx context.Context, identifier string, songIDs []int64) error {
	p, err := s.playlists.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	return s.playlists.SetSongs(ctx, p.ID, songIDs)
}
