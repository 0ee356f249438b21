package repository

import (
	"context"
	"fmt"
	"strings"

	"hastingtx/db"
	"hastingtx/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository is the data access interface for tags.
type TagRepository interface {
	List(ctx context.Context) ([]model.TagCount, error)
	Count(ctx context.Context) (int64, error)
	ForSong(ctx context.Context, songID int64) ([]model.Tag, error)
	SetSongTags(ctx context.Context, songID int64, names []string) ([]model.Tag, error)
	Delete(ctx context.Context, id int64) error
}

type gormTagRepository struct {
	db *gorm.DB
}

// NewGormTagRepository creates a GORM tag repository.
func NewGormTagRepository(db *gorm.DB) TagRepository {
	return &gormTagRepository{db: db}
}

// List returns every tag with its song count, ordered by name.
func (r *gormTagRepository) List(ctx context.Context) ([]model.TagCount, error) {
	var tags []model.TagCount
	err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Select("tags.id, tags.name, tags.name_key, COUNT(song_tags.song_id) AS song_count").
		Joins("LEFT JOIN song_tags ON song_tags.tag_id = tags.id").
		Group("tags.id, tags.name, tags.name_key").
		Order("tags.name_key").
		Scan(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *gormTagRepository) ForSong(ctx context.Context, songID int64) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN song_tags ON song_tags.tag_id = tags.id").
		Where("song_tags.song_id = ?", songID).
		Order("tags.name_key").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("tags of song %d: %w", songID, err)
	}
	return tags, nil
}

// findOrCreate returns the tag whose key matches name, creating it when
// absent. A concurrent creator winning the unique index is not an error.
func findOrCreate(tx *gorm.DB, name string) (model.Tag, error) {
	tag := model.Tag{Name: strings.TrimSpace(name), NameKey: model.NameKey(name)}
	err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name_key"}}, DoNothing: true}).
		Create(&tag).Error
	if err != nil {
		return tag, fmt.Errorf("create tag %q: %w", name, err)
	}
	var existing model.Tag
	if err := tx.Where("name_key = ?", tag.NameKey).First(&existing).Error; err != nil {
		return tag, db.TranslateError(err, "tag", name)
	}
	return existing, nil
}

// SetSongTags replaces the tag set of a song. Names are matched
// case-insensitively and created on first use; blanks and repeats are
// dropped.
func (r *gormTagRepository) SetSongTags(ctx context.Context, songID int64, names []string) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.Song{}, songID).Error; err != nil {
			return db.TranslateError(err, "song", fmt.Sprint(songID))
		}
		if err := tx.Where("song_id = ?", songID).Delete(&model.SongTag{}).Error; err != nil {
			return fmt.Errorf("clear tags of song %d: %w", songID, err)
		}

		seen := make(map[string]bool, len(names))
		for _, name := range names {
			key := model.NameKey(name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true

			tag, err := findOrCreate(tx, name)
			if err != nil {
				return err
			}
			if err := tx.Create(&model.SongTag{SongID: songID, TagID: tag.ID}).Error; err != nil {
				return fmt.Errorf("tag song %d: %w", songID, err)
			}
			tags = append(tags, tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Delete removes a tag and detaches it from every song.
func (r *gormTagRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.SongTag{}).Error; err != nil {
			return fmt.Errorf("detach tag %d: %w", id, err)
		}
		res := tx.Delete(&model.Tag{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete tag %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.NewNotFound("tag", id)
		}
		return nil
	})
}

func (r *gormTagRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Tag{}).Count(&n).Error
	return n, err
}
