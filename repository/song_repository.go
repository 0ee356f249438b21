package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hastingtx/db"
	"hastingtx/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ColumnValue is one song's current value for a rewritable text column.
type ColumnValue struct {
	ID    int64
	Value string
}

// RewritePlan receives every non-empty value of a column, read inside the
// rewrite transaction, and returns the new value for each song id that
// should change. Returning an error aborts the transaction.
type RewritePlan func(values []ColumnValue) (map[int64]string, error)

// SongRepository is the data access interface for songs.
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id int64) (*model.Song, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.Song, error)
	IdentifierExists(ctx context.Context, identifier string) (bool, error)
	List(ctx context.Context) ([]model.Song, error)
	ListWithTags(ctx context.Context) ([]model.Song, error)
	ListRecent(ctx context.Context, limit int) ([]model.Song, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Song, error)
	Update(ctx context.Context, song *model.Song) error
	Delete(ctx context.Context, id int64) error

	// Lookups
	Search(ctx context.Context, query string, limit int) ([]model.Song, error)
	ListByAlbum(ctx context.Context, album string) ([]model.Song, error)
	ListByGenre(ctx context.Context, genreID int64, nameKey string) ([]model.Song, error)
	DistinctAlbums(ctx context.Context) ([]model.AlbumCount, error)
	ListMissing(ctx context.Context, field string, limit int) ([]model.Song, error)

	// Bulk edits
	SetAlbum(ctx context.Context, ids []int64, album string) (int64, error)
	SetGenre(ctx context.Context, ids []int64, genre *model.Genre) (int64, error)
	SetDuration(ctx context.Context, id int64, seconds int) error
	RewriteColumn(ctx context.Context, column string, plan RewritePlan) (int64, error)

	// Aggregates
	Totals(ctx context.Context) (model.SongTotals, error)
	CountMissing(ctx context.Context) (map[string]int64, error)
	TopByCounter(ctx context.Context, column string, limit int) ([]model.Song, error)
}

// gormSongRepository GORM implementation
type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a GORM song repository.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

// Columns that RewriteColumn and TopByCounter accept. They are spliced into
// SQL, so nothing outside these sets may reach the query.
var (
	rewritableColumns = map[string]bool{"album": true, "genre": true, "artist": true}
	counterColumns    = map[string]bool{"listen_count": true, "download_count": true}
)

// ========== CRUD ==========

func (r *gormSongRepository) Create(ctx context.Context, song *model.Song) error {
	err := r.db.WithContext(ctx).Omit("Tags").Create(song).Error
	if err != nil {
		return db.TranslateError(err, "song", song.Identifier)
	}
	return nil
}

func (r *gormSongRepository) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Preload("Tags").First(&song, id).Error
	if err != nil {
		return nil, db.TranslateError(err, "song", fmt.Sprint(id))
	}
	return &song, nil
}

func (r *gormSongRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Preload("Tags").
		Where("identifier = ?", identifier).
		First(&song).Error
	if err != nil {
		return nil, db.TranslateError(err, "song", identifier)
	}
	return &song, nil
}

func (r *gormSongRepository) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Song{}).
		Where("identifier = ?", identifier).
		Count(&count).Error
	return count > 0, err
}

// List returns every song ordered by id.
func (r *gormSongRepository) List(ctx context.Context) ([]model.Song, error) {
	var songs []model.Song
	if err := r.db.WithContext(ctx).Order("id").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return songs, nil
}

// ListWithTags is List with each song's tags loaded.
func (r *gormSongRepository) ListWithTags(ctx context.Context) ([]model.Song, error) {
	var songs []model.Song
	if err := r.db.WithContext(ctx).Preload("Tags").Order("id").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("list songs with tags: %w", err)
	}
	return songs, nil
}

// ListRecent returns the latest uploads, newest first.
func (r *gormSongRepository) ListRecent(ctx context.Context, limit int) ([]model.Song, error) {
	var songs []model.Song
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("recent songs: %w", err)
	}
	return songs, nil
}

func (r *gormSongRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Song, error) {
	var songs []model.Song
	if len(ids) == 0 {
		return songs, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("list songs by id: %w", err)
	}
	return songs, nil
}

// Update writes the editable fields of song. Identifier, counters and the
// upload date are left alone.
func (r *gormSongRepository) Update(ctx context.Context, song *model.Song) error {
	res := r.db.WithContext(ctx).Model(song).
		Select("*").
		Omit("ID", "Identifier", "ListenCount", "DownloadCount", "CreatedAt", "Tags").
		Updates(song)
	if res.Error != nil {
		return db.TranslateError(res.Error, "song", song.Identifier)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFound("song", song.ID)
	}
	return nil
}

// SetDuration records the measured length of a song's audio file.
func (r *gormSongRepository) SetDuration(ctx context.Context, id int64, seconds int) error {
	res := r.db.WithContext(ctx).Model(&model.Song{}).Where("id = ?", id).Update("duration", seconds)
	if res.Error != nil {
		return fmt.Errorf("set duration of song %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFound("song", id)
	}
	return nil
}

// Delete removes a song together with everything it owns.
func (r *gormSongRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&model.PlaylistSong{},
			&model.Rating{},
			&model.SongTag{},
			&model.ActivityEvent{},
		}
		for _, m := range owned {
			if err := tx.Where("song_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("delete rows owned by song %d: %w", id, err)
			}
		}
		res := tx.Delete(&model.Song{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete song %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.NewNotFound("song", id)
		}
		return nil
	})
}

// ========== Lookups ==========

// Search matches query case-insensitively against title, artist, album and
// description.
func (r *gormSongRepository) Search(ctx context.Context, query string, limit int) ([]model.Song, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(artist) LIKE ? OR LOWER(album) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern, pattern).
		Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var songs []model.Song
	if err := q.Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("search songs: %w", err)
	}
	return songs, nil
}

func (r *gormSongRepository) ListByAlbum(ctx context.Context, album string) ([]model.Song, error) {
	var songs []model.Song
	err := r.db.WithContext(ctx).
		Where("LOWER(album) = ?", strings.ToLower(strings.TrimSpace(album))).
		Order("id").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("list songs by album: %w", err)
	}
	return songs, nil
}

// ListByGenre returns songs linked to genreID, plus unlinked songs whose
// legacy genre text folds to nameKey. Pass genreID 0 to match on text only.
func (r *gormSongRepository) ListByGenre(ctx context.Context, genreID int64, nameKey string) ([]model.Song, error) {
	var songs []model.Song
	err := r.db.WithContext(ctx).
		Where("genre_id = ? OR (genre_id IS NULL AND LOWER(TRIM(genre)) = ?)", genreID, nameKey).
		Order("id").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("list songs by genre: %w", err)
	}
	return songs, nil
}

// DistinctAlbums counts songs per exact album value. Counting happens here
// rather than in GROUP BY so case variants stay separate on every collation.
func (r *gormSongRepository) DistinctAlbums(ctx context.Context) ([]model.AlbumCount, error) {
	var albums []string
	err := r.db.WithContext(ctx).Model(&model.Song{}).
		Where("album IS NOT NULL AND album <> ''").
		Pluck("album", &albums).Error
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}

	counts := make(map[string]int64, len(albums))
	for _, a := range albums {
		counts[a]++
	}
	out := make([]model.AlbumCount, 0, len(counts))
	for a, n := range counts {
		out = append(out, model.AlbumCount{Album: a, Songs: n})
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Album), strings.ToLower(out[j].Album)
		if li != lj {
			return li < lj
		}
		return out[i].Album < out[j].Album
	})
	return out, nil
}

func missingCondition(field string) (string, error) {
	switch field {
	case model.FieldDescription, model.FieldAlbum, model.FieldLyrics,
		model.FieldCoverArt, model.FieldComposer, model.FieldLyricist:
		return fmt.Sprintf("(%s IS NULL OR %s = '')", field, field), nil
	case model.FieldGenre:
		return "(genre_id IS NULL AND (genre IS NULL OR genre = ''))", nil
	case model.FieldTags:
		return "NOT EXISTS (SELECT 1 FROM song_tags st WHERE st.song_id = songs.id)", nil
	}
	return "", model.NewValidation("field", "unknown field %q", field)
}

// ListMissing returns songs with no value for field.
func (r *gormSongRepository) ListMissing(ctx context.Context, field string, limit int) ([]model.Song, error) {
	cond, err := missingCondition(field)
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Where(cond).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var songs []model.Song
	if err := q.Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("list songs missing %s: %w", field, err)
	}
	return songs, nil
}

// ========== Bulk edits ==========

// checkAllExist fails with NotFoundError when any id has no song row.
func checkAllExist(tx *gorm.DB, ids []int64) error {
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	var found []int64
	if err := tx.Model(&model.Song{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("check songs: %w", err)
	}
	for _, id := range found {
		delete(unique, id)
	}
	if len(unique) == 0 {
		return nil
	}
	missing := make([]int64, 0, len(unique))
	for id := range unique {
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return model.NewNotFound("song", missing[0])
}

// SetAlbum sets the album of every listed song.
func (r *gormSongRepository) SetAlbum(ctx context.Context, ids []int64, album string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAllExist(tx, ids); err != nil {
			return err
		}
		res := tx.Model(&model.Song{}).Where("id IN ?", ids).Update("album", strings.TrimSpace(album))
		if res.Error != nil {
			return fmt.Errorf("set album: %w", res.Error)
		}
		changed = res.RowsAffected
		return nil
	})
	return changed, err
}

// SetGenre links every listed song to genre and refreshes the legacy text
// column. A nil genre clears both.
func (r *gormSongRepository) SetGenre(ctx context.Context, ids []int64, genre *model.Genre) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	updates := map[string]interface{}{"genre_id": nil, "genre": ""}
	if genre != nil {
		updates["genre_id"] = genre.ID
		updates["genre"] = genre.Name
	}
	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAllExist(tx, ids); err != nil {
			return err
		}
		res := tx.Model(&model.Song{}).Where("id IN ?", ids).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("set genre: %w", res.Error)
		}
		changed = res.RowsAffected
		return nil
	})
	return changed, err
}

// RewriteColumn applies plan to column in a single transaction and returns
// the number of rows rewritten. Updates go by id so the result does not
// depend on the column collation. Rewriting the genre column also links
// unlinked songs to the Genre row their new text names.
func (r *gormSongRepository) RewriteColumn(ctx context.Context, column string, plan RewritePlan) (int64, error) {
	if !rewritableColumns[column] {
		return 0, model.NewValidation("column", "%q cannot be rewritten", column)
	}

	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var values []ColumnValue
		err := tx.Model(&model.Song{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select(fmt.Sprintf("id, %s AS value", column)).
			Where(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", column, column)).
			Order("id").
			Scan(&values).Error
		if err != nil {
			return fmt.Errorf("read %s values: %w", column, err)
		}

		updates, err := plan(values)
		if err != nil {
			return err
		}

		byValue := make(map[string][]int64)
		for id, v := range updates {
			byValue[v] = append(byValue[v], id)
		}
		targets := make([]string, 0, len(byValue))
		for v := range byValue {
			targets = append(targets, v)
		}
		sort.Strings(targets)

		for _, v := range targets {
			res := tx.Model(&model.Song{}).Where("id IN ?", byValue[v]).Update(column, v)
			if res.Error != nil {
				return fmt.Errorf("rewrite %s to %q: %w", column, v, res.Error)
			}
			changed += res.RowsAffected
		}

		if column == "genre" {
			err := tx.Exec(`UPDATE songs SET genre_id = (
					SELECT g.id FROM genres g WHERE g.name_key = LOWER(TRIM(songs.genre)))
				WHERE genre_id IS NULL AND genre <> ''
					AND EXISTS (SELECT 1 FROM genres g WHERE g.name_key = LOWER(TRIM(songs.genre)))`).Error
			if err != nil {
				return fmt.Errorf("relink genres: %w", err)
			}
			synced, err := syncGenreText(tx)
			if err != nil {
				return err
			}
			changed += synced
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// syncGenreText resets the genre text of linked songs to their Genre's name.
// Spellings are compared in Go so a case-insensitive collation cannot hide
// a difference.
func syncGenreText(tx *gorm.DB) (int64, error) {
	var linked []struct {
		ID    int64
		Genre string
		Name  string
	}
	err := tx.Table("songs").
		Select("songs.id AS id, songs.genre AS genre, genres.name AS name").
		Joins("JOIN genres ON genres.id = songs.genre_id").
		Scan(&linked).Error
	if err != nil {
		return 0, fmt.Errorf("read linked genres: %w", err)
	}

	byName := make(map[string][]int64)
	for _, l := range linked {
		if l.Genre != l.Name {
			byName[l.Name] = append(byName[l.Name], l.ID)
		}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var changed int64
	for _, name := range names {
		res := tx.Model(&model.Song{}).Where("id IN ?", byName[name]).Update("genre", name)
		if res.Error != nil {
			return 0, fmt.Errorf("sync genre text to %q: %w", name, res.Error)
		}
		changed += res.RowsAffected
	}
	return changed, nil
}

// ========== Aggregates ==========

func (r *gormSongRepository) Totals(ctx context.Context) (model.SongTotals, error) {
	var totals model.SongTotals
	err := r.db.WithContext(ctx).Model(&model.Song{}).
		Select(`COUNT(*) AS songs,
			COALESCE(SUM(listen_count), 0) AS listens,
			COALESCE(SUM(download_count), 0) AS downloads,
			COALESCE(SUM(duration), 0) AS duration_secs,
			COALESCE(SUM(file_size), 0) AS file_size_bytes,
			COUNT(DISTINCT CASE WHEN album <> '' THEN LOWER(album) END) AS albums,
			COUNT(DISTINCT CASE WHEN artist <> '' THEN LOWER(artist) END) AS artists,
			COALESCE(SUM(CASE WHEN genre_id IS NULL AND genre <> '' THEN 1 ELSE 0 END), 0) AS unlinked_genres`).
		Scan(&totals).Error
	if err != nil {
		return totals, fmt.Errorf("song totals: %w", err)
	}
	return totals, nil
}

// CountMissing counts songs lacking each field in model.MissingFields.
func (r *gormSongRepository) CountMissing(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(model.MissingFields))
	for _, field := range model.MissingFields {
		cond, err := missingCondition(field)
		if err != nil {
			return nil, err
		}
		var n int64
		if err := r.db.WithContext(ctx).Model(&model.Song{}).Where(cond).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count songs missing %s: %w", field, err)
		}
		out[field] = n
	}
	return out, nil
}

// TopByCounter returns the songs with the highest listen_count or
// download_count, ties broken by id.
func (r *gormSongRepository) TopByCounter(ctx context.Context, column string, limit int) ([]model.Song, error) {
	if !counterColumns[column] {
		return nil, model.NewValidation("metric", "unknown counter %q", column)
	}
	var songs []model.Song
	err := r.db.WithContext(ctx).
		Order(column + " DESC").
		Order("id").
		Limit(limit).
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("top songs by %s: %w", column, err)
	}
	return songs, nil
}
