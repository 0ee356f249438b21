package repository

import (
	"context"
	"fmt"

	"hastingtx/db"
	"hastingtx/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistRepository is the data access interface for playlists and their
// membership rows.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByID(ctx context.Context, id int64) (*model.Playlist, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.Playlist, error)
	IdentifierExists(ctx context.Context, identifier string) (bool, error)
	List(ctx context.Context) ([]model.Playlist, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, playlist *model.Playlist) error
	Delete(ctx context.Context, id int64) error
	EnsureAll(ctx context.Context) (*model.Playlist, error)

	// Membership
	Memberships(ctx context.Context, playlistID int64) ([]model.PlaylistSong, error)
	Entries(ctx context.Context, playlistID int64) ([]model.PlaylistEntry, error)
	AddSong(ctx context.Context, playlistID, songID int64, position *int) (*model.PlaylistSong, error)
	RemoveSong(ctx context.Context, playlistID, songID int64) error
	Reorder(ctx context.Context, playlistID int64, songIDs []int64) error
	SetSongs(ctx context.Context, playlistID int64, songIDs []int64) error
	SongCounts(ctx context.Context) (map[int64]int64, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a GORM playlist repository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// ========== Playlist CRUD ==========

// Create inserts playlist. GORM replaces a false IsPublic with the column
// default on insert, so a private playlist is hidden in a second statement.
func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	public := playlist.IsPublic
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(playlist).Error; err != nil {
			return db.TranslateError(err, "playlist", playlist.Identifier)
		}
		if public {
			return nil
		}
		playlist.IsPublic = false
		if err := tx.Model(playlist).Update("is_public", false).Error; err != nil {
			return fmt.Errorf("hide playlist %d: %w", playlist.ID, err)
		}
		return nil
	})
}

func (r *gormPlaylistRepository) GetByID(ctx context.Context, id int64) (*model.Playlist, error) {
	var p model.Playlist
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, db.TranslateError(err, "playlist", fmt.Sprint(id))
	}
	return &p, nil
}

func (r *gormPlaylistRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&p).Error
	if err != nil {
		return nil, db.TranslateError(err, "playlist", identifier)
	}
	return &p, nil
}

func (r *gormPlaylistRepository) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("identifier = ?", identifier).
		Count(&count).Error
	return count > 0, err
}

// List returns playlists ordered by name.
func (r *gormPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	var playlists []model.Playlist
	if err := r.db.WithContext(ctx).Order("name").Order("id").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return playlists, nil
}

// Update writes name, description, sort order and visibility.
func (r *gormPlaylistRepository) Update(ctx context.Context, playlist *model.Playlist) error {
	res := r.db.WithContext(ctx).Model(playlist).
		Select("Name", "Description", "SortOrder", "IsPublic", "UpdatedAt").
		Updates(playlist)
	if res.Error != nil {
		return fmt.Errorf("update playlist %d: %w", playlist.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFound("playlist", playlist.ID)
	}
	return nil
}

// Delete removes a playlist and its membership rows. The reserved "all"
// playlist cannot be deleted.
func (r *gormPlaylistRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Playlist
		if err := tx.First(&p, id).Error; err != nil {
			return db.TranslateError(err, "playlist", fmt.Sprint(id))
		}
		if p.IsAll() {
			return model.NewValidation("identifier", "playlist %q is reserved and cannot be deleted", p.Identifier)
		}
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistSong{}).Error; err != nil {
			return fmt.Errorf("delete playlist songs: %w", err)
		}
		if err := tx.Delete(&p).Error; err != nil {
			return fmt.Errorf("delete playlist %d: %w", id, err)
		}
		return nil
	})
}

// EnsureAll creates the reserved "all" playlist if it is missing and
// returns it.
func (r *gormPlaylistRepository) EnsureAll(ctx context.Context) (*model.Playlist, error) {
	seed := model.Playlist{
		Identifier:  model.AllPlaylistIdentifier,
		Name:        "All Songs",
		Description: "Every song in the catalog",
		SortOrder:   model.SortTitle,
		IsPublic:    true,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "identifier"}}, DoNothing: true}).
		Create(&seed).Error
	if err != nil {
		return nil, fmt.Errorf("seed all playlist: %w", err)
	}
	return r.GetByIdentifier(ctx, model.AllPlaylistIdentifier)
}

// ========== Membership ==========

func (r *gormPlaylistRepository) Memberships(ctx context.Context, playlistID int64) ([]model.PlaylistSong, error) {
	var rows []model.PlaylistSong
	err := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list playlist %d songs: %w", playlistID, err)
	}
	return rows, nil
}

// Entries joins the membership rows of a playlist with their songs, in
// membership row order.
func (r *gormPlaylistRepository) Entries(ctx context.Context, playlistID int64) ([]model.PlaylistEntry, error) {
	rows, err := r.Memberships(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.PlaylistEntry{}, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.SongID
	}
	var songs []model.Song
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("load playlist %d songs: %w", playlistID, err)
	}
	byID := make(map[int64]model.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	entries := make([]model.PlaylistEntry, 0, len(rows))
	for _, row := range rows {
		song, ok := byID[row.SongID]
		if !ok {
			continue
		}
		entries = append(entries, model.PlaylistEntry{Song: song, Position: row.Position, AddedAt: row.AddedAt})
	}
	return entries, nil
}

// AddSong puts songID into the playlist. Without an explicit position the
// song goes after the current maximum. Adding a song that is already a
// member only moves it.
func (r *gormPlaylistRepository) AddSong(ctx context.Context, playlistID, songID int64, position *int) (*model.PlaylistSong, error) {
	var row model.PlaylistSong
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.Playlist{}, playlistID).Error; err != nil {
			return db.TranslateError(err, "playlist", fmt.Sprint(playlistID))
		}
		if err := tx.Select("id").First(&model.Song{}, songID).Error; err != nil {
			return db.TranslateError(err, "song", fmt.Sprint(songID))
		}

		if position == nil {
			var next int
			err := tx.Model(&model.PlaylistSong{}).
				Select("COALESCE(MAX(position), 0) + 1").
				Where("playlist_id = ?", playlistID).
				Scan(&next).Error
			if err != nil {
				return fmt.Errorf("next position: %w", err)
			}
			position = &next
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "playlist_id"}, {Name: "song_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position"}),
		}).Create(&model.PlaylistSong{PlaylistID: playlistID, SongID: songID, Position: position}).Error
		if err != nil {
			return fmt.Errorf("add song %d to playlist %d: %w", songID, playlistID, err)
		}

		return tx.Where("playlist_id = ? AND song_id = ?", playlistID, songID).First(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *gormPlaylistRepository) RemoveSong(ctx context.Context, playlistID, songID int64) error {
	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		Delete(&model.PlaylistSong{})
	if res.Error != nil {
		return fmt.Errorf("remove song %d from playlist %d: %w", songID, playlistID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFound("playlist song", fmt.Sprintf("%d/%d", playlistID, songID))
	}
	return nil
}

// Reorder assigns positions 1..n to songIDs in the given order. Members not
// listed keep their positions. A listed song that is not a member fails the
// whole call with ConflictError.
func (r *gormPlaylistRepository) Reorder(ctx context.Context, playlistID int64, songIDs []int64) error {
	seen := make(map[int64]bool, len(songIDs))
	for _, id := range songIDs {
		if seen[id] {
			return model.NewValidation("songIds", "song %d listed twice", id)
		}
		seen[id] = true
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members []int64
		err := tx.Model(&model.PlaylistSong{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("playlist_id = ?", playlistID).
			Pluck("song_id", &members).Error
		if err != nil {
			return fmt.Errorf("lock playlist %d: %w", playlistID, err)
		}
		isMember := make(map[int64]bool, len(members))
		for _, id := range members {
			isMember[id] = true
		}

		for i, songID := range songIDs {
			if !isMember[songID] {
				return &model.ConflictError{Message: fmt.Sprintf("song %d is no longer in playlist %d", songID, playlistID)}
			}
			err := tx.Model(&model.PlaylistSong{}).
				Where("playlist_id = ? AND song_id = ?", playlistID, songID).
				Update("position", i+1).Error
			if err != nil {
				return fmt.Errorf("set position of song %d: %w", songID, err)
			}
		}
		return nil
	})
}

// SetSongs replaces the membership of a playlist with songIDs at positions
// 1..n.
func (r *gormPlaylistRepository) SetSongs(ctx context.Context, playlistID int64, songIDs []int64) error {
	seen := make(map[int64]bool, len(songIDs))
	for _, id := range songIDs {
		if seen[id] {
			return model.NewValidation("songIds", "song %d listed twice", id)
		}
		seen[id] = true
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.Playlist{}, playlistID).Error; err != nil {
			return db.TranslateError(err, "playlist", fmt.Sprint(playlistID))
		}
		if len(songIDs) > 0 {
			if err := checkAllExist(tx, songIDs); err != nil {
				return err
			}
		}
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&model.PlaylistSong{}).Error; err != nil {
			return fmt.Errorf("clear playlist %d: %w", playlistID, err)
		}
		if len(songIDs) == 0 {
			return nil
		}

		rows := make([]model.PlaylistSong, len(songIDs))
		for i, id := range songIDs {
			pos := i + 1
			rows[i] = model.PlaylistSong{PlaylistID: playlistID, SongID: id, Position: &pos}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("fill playlist %d: %w", playlistID, err)
		}
		return nil
	})
}

// SongCounts returns the number of membership rows per playlist id.
func (r *gormPlaylistRepository) SongCounts(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		PlaylistID int64
		Songs      int64
	}
	err := r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Select("playlist_id, COUNT(*) AS songs").
		Group("playlist_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count playlist songs: %w", err)
	}
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.PlaylistID] = row.Songs
	}
	return out, nil
}

func (r *gormPlaylistRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Playlist{}).Count(&n).Error
	return n, err
}
