package repository

import (
	"context"
	"fmt"

	"hastingtx/db"
	"hastingtx/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ParentCheck inspects the id->parent arena of every genre, read under lock
// inside the SetParent transaction, and rejects assignments that would
// break the forest.
type ParentCheck func(parents map[int64]*int64) error

// GenreRepository is the data access interface for the genre forest.
type GenreRepository interface {
	Create(ctx context.Context, genre *model.Genre) error
	GetByID(ctx context.Context, id int64) (*model.Genre, error)
	GetByName(ctx context.Context, name string) (*model.Genre, error)
	List(ctx context.Context) ([]model.Genre, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	SetParent(ctx context.Context, id int64, parentID *int64, check ParentCheck) error
	DirectSongCounts(ctx context.Context) (map[int64]int64, error)
}

type gormGenreRepository struct {
	db *gorm.DB
}

// NewGormGenreRepository creates a GORM genre repository.
func NewGormGenreRepository(db *gorm.DB) GenreRepository {
	return &gormGenreRepository{db: db}
}

// Create inserts genre. NameKey is derived from Name here, so callers never
// set it.
func (r *gormGenreRepository) Create(ctx context.Context, genre *model.Genre) error {
	genre.NameKey = model.NameKey(genre.Name)
	if err := r.db.WithContext(ctx).Create(genre).Error; err != nil {
		return db.TranslateError(err, "genre", genre.Name)
	}
	return nil
}

func (r *gormGenreRepository) GetByID(ctx context.Context, id int64) (*model.Genre, error) {
	var g model.Genre
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, db.TranslateError(err, "genre", fmt.Sprint(id))
	}
	return &g, nil
}

// GetByName looks a genre up case-insensitively.
func (r *gormGenreRepository) GetByName(ctx context.Context, name string) (*model.Genre, error) {
	var g model.Genre
	err := r.db.WithContext(ctx).Where("name_key = ?", model.NameKey(name)).First(&g).Error
	if err != nil {
		return nil, db.TranslateError(err, "genre", name)
	}
	return &g, nil
}

// List returns all genres ordered by name.
func (r *gormGenreRepository) List(ctx context.Context) ([]model.Genre, error) {
	var genres []model.Genre
	if err := r.db.WithContext(ctx).Order("name_key").Order("id").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genres, nil
}

// Delete removes a genre. Its children become roots and its songs are
// unlinked; nothing else is deleted.
func (r *gormGenreRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Genre{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return fmt.Errorf("detach children of genre %d: %w", id, err)
		}
		if err := tx.Model(&model.Song{}).Where("genre_id = ?", id).Update("genre_id", nil).Error; err != nil {
			return fmt.Errorf("unlink songs of genre %d: %w", id, err)
		}
		res := tx.Delete(&model.Genre{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete genre %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.NewNotFound("genre", id)
		}
		return nil
	})
}

// SetParent loads the parent arena with row locks, runs check against it
// and then writes the new parent. A nil parentID makes the genre a root.
func (r *gormGenreRepository) SetParent(ctx context.Context, id int64, parentID *int64, check ParentCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var nodes []struct {
			ID       int64
			ParentID *int64
		}
		err := tx.Model(&model.Genre{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id, parent_id").
			Scan(&nodes).Error
		if err != nil {
			return fmt.Errorf("load genre arena: %w", err)
		}

		parents := make(map[int64]*int64, len(nodes))
		for _, n := range nodes {
			parents[n.ID] = n.ParentID
		}
		if _, ok := parents[id]; !ok {
			return model.NewNotFound("genre", id)
		}
		if parentID != nil {
			if _, ok := parents[*parentID]; !ok {
				return model.NewNotFound("genre", *parentID)
			}
		}
		if check != nil {
			if err := check(parents); err != nil {
				return err
			}
		}

		err = tx.Model(&model.Genre{ID: id}).Update("parent_id", parentID).Error
		if err != nil {
			return fmt.Errorf("set parent of genre %d: %w", id, err)
		}
		return nil
	})
}

// DirectSongCounts returns, per genre id, the number of songs assigned to
// that genre itself. Unlinked songs count toward the genre their legacy
// text names.
func (r *gormGenreRepository) DirectSongCounts(ctx context.Context) (map[int64]int64, error) {
	var linked []struct {
		GenreID int64
		Songs   int64
	}
	err := r.db.WithContext(ctx).Model(&model.Song{}).
		Select("genre_id, COUNT(*) AS songs").
		Where("genre_id IS NOT NULL").
		Group("genre_id").
		Scan(&linked).Error
	if err != nil {
		return nil, fmt.Errorf("count linked songs: %w", err)
	}

	var legacy []struct {
		NameKey string
		Songs   int64
	}
	err = r.db.WithContext(ctx).Model(&model.Song{}).
		Select("LOWER(TRIM(genre)) AS name_key, COUNT(*) AS songs").
		Where("genre_id IS NULL AND genre IS NOT NULL AND genre <> ''").
		Group("LOWER(TRIM(genre))").
		Scan(&legacy).Error
	if err != nil {
		return nil, fmt.Errorf("count unlinked songs: %w", err)
	}

	out := make(map[int64]int64, len(linked))
	for _, row := range linked {
		out[row.GenreID] += row.Songs
	}
	if len(legacy) == 0 {
		return out, nil
	}

	var keys []struct {
		ID      int64
		NameKey string
	}
	if err := r.db.WithContext(ctx).Model(&model.Genre{}).Select("id, name_key").Scan(&keys).Error; err != nil {
		return nil, fmt.Errorf("load genre keys: %w", err)
	}
	idByKey := make(map[string]int64, len(keys))
	for _, k := range keys {
		idByKey[k.NameKey] = k.ID
	}
	for _, row := range legacy {
		if id, ok := idByKey[row.NameKey]; ok {
			out[id] += row.Songs
		}
	}
	return out, nil
}

func (r *gormGenreRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Genre{}).Count(&n).Error
	return n, err
}
