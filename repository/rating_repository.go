package repository

import (
	"context"
	"fmt"
	"time"

	"hastingtx/db"
	"hastingtx/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingAggregate is the raw count and average of one song's votes.
type RatingAggregate struct {
	SongID  int64
	Count   int64
	Average float64
}

// RatingRepository is the data access interface for votes.
type RatingRepository interface {
	Upsert(ctx context.Context, songID int64, origin string, score int) error
	Get(ctx context.Context, songID int64, origin string) (*model.Rating, error)
	Aggregate(ctx context.Context, songID int64) (RatingAggregate, error)
	TopAggregates(ctx context.Context, minVotes, limit int) ([]RatingAggregate, error)
	Recent(ctx context.Context, limit int) ([]model.RecentRating, error)
	Totals(ctx context.Context) (count, ratedSongs int64, average float64, err error)
}

type gormRatingRepository struct {
	db *gorm.DB
}

// NewGormRatingRepository creates a GORM rating repository.
func NewGormRatingRepository(db *gorm.DB) RatingRepository {
	return &gormRatingRepository{db: db}
}

// Upsert records origin's vote on songID in one statement: INSERT ... ON
// DUPLICATE KEY UPDATE on MySQL, INSERT ... ON CONFLICT DO UPDATE on SQLite.
// The (song_id, ip_address) unique index arbitrates concurrent votes.
func (r *gormRatingRepository) Upsert(ctx context.Context, songID int64, origin string, score int) error {
	rating := model.Rating{SongID: songID, IPAddress: origin, Rating: score}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "song_id"}, {Name: "ip_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"rating": score, "updated_at": time.Now()}),
	}).Create(&rating).Error
	if err != nil {
		return fmt.Errorf("upsert rating for song %d: %w", songID, err)
	}
	return nil
}

// Get returns origin's current vote on songID.
func (r *gormRatingRepository) Get(ctx context.Context, songID int64, origin string) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.WithContext(ctx).
		Where("song_id = ? AND ip_address = ?", songID, origin).
		First(&rating).Error
	if err != nil {
		return nil, db.TranslateError(err, "rating", fmt.Sprintf("%d/%s", songID, origin))
	}
	return &rating, nil
}

func (r *gormRatingRepository) Aggregate(ctx context.Context, songID int64) (RatingAggregate, error) {
	agg := RatingAggregate{SongID: songID}
	err := r.db.WithContext(ctx).Model(&model.Rating{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("song_id = ?", songID).
		Scan(&agg).Error
	if err != nil {
		return agg, fmt.Errorf("aggregate ratings for song %d: %w", songID, err)
	}
	agg.SongID = songID
	return agg, nil
}

// TopAggregates returns songs with at least minVotes votes, highest average
// first, ties broken by song id.
func (r *gormRatingRepository) TopAggregates(ctx context.Context, minVotes, limit int) ([]RatingAggregate, error) {
	var out []RatingAggregate
	q := r.db.WithContext(ctx).Model(&model.Rating{}).
		Select("song_id, COUNT(*) AS count, AVG(rating) AS average").
		Group("song_id").
		Having("COUNT(*) >= ?", minVotes).
		Order("average DESC").
		Order("song_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("top rated songs: %w", err)
	}
	return out, nil
}

// Recent returns the latest votes with the titles of the songs they rate.
func (r *gormRatingRepository) Recent(ctx context.Context, limit int) ([]model.RecentRating, error) {
	var out []model.RecentRating
	err := r.db.WithContext(ctx).Model(&model.Rating{}).
		Select("ratings.song_id, songs.title, ratings.rating, ratings.updated_at AS created_at").
		Joins("JOIN songs ON songs.id = ratings.song_id").
		Order("ratings.updated_at DESC").
		Order("ratings.id DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent ratings: %w", err)
	}
	return out, nil
}

// Totals returns the number of votes, the number of rated songs and the
// mean over all votes.
func (r *gormRatingRepository) Totals(ctx context.Context) (count, ratedSongs int64, average float64, err error) {
	var row struct {
		Count      int64
		RatedSongs int64
		Average    float64
	}
	err = r.db.WithContext(ctx).Model(&model.Rating{}).
		Select("COUNT(*) AS count, COUNT(DISTINCT song_id) AS rated_songs, COALESCE(AVG(rating), 0) AS average").
		Scan(&row).Error
	if err != nil {
		return 0, 0, 0, fmt.Errorf("rating totals: %w", err)
	}
	return row.Count, row.RatedSongs, row.Average, nil
}
