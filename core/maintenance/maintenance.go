// Package maintenance finds and repairs inconsistencies across the catalog.
// Diagnostics never write; every repair is one transaction that either
// commits in full or leaves the catalog untouched.
package maintenance

import (
	"context"
	"sort"
	"strings"
	"time"

	"hastingtx/logger"
	"hastingtx/metrics"
	"hastingtx/model"
	"hastingtx/repository"
)

// Engine is the catalog maintenance engine.
type Engine struct {
	repos *repository.Repositories
}

// NewEngine creates a maintenance engine over repos.
func NewEngine(repos *repository.Repositories) *Engine {
	return &Engine{repos: repos}
}

// ========== Duplicates ==========

// DuplicateSong is one member of a duplicate group with the numbers an
// operator needs to pick the copy to keep.
type DuplicateSong struct {
	ID            int64     `json:"id"`
	Identifier    string    `json:"identifier"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	ListenCount   int64     `json:"listenCount"`
	DownloadCount int64     `json:"downloadCount"`
	UploadDate    time.Time `json:"uploadDate"`
}

// DuplicateGroup is a set of songs sharing a normalized title and artist.
type DuplicateGroup struct {
	Key   string          `json:"key"`
	Songs []DuplicateSong `json:"songs"`
}

// normalize lower-cases s and collapses runs of whitespace to one space.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// DuplicateKey is the grouping key for FindDuplicates.
func DuplicateKey(title, artist string) string {
	return normalize(title) + " | " + normalize(artist)
}

// FindDuplicates groups songs by normalized title and artist and returns
// the groups with two or more members, largest first, then by key. Members
// are ordered by id.
func (e *Engine) FindDuplicates(ctx context.Context) ([]DuplicateGroup, error) {
	songs, err := e.repos.Songs.List(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]DuplicateSong)
	for _, s := range songs {
		key := DuplicateKey(s.Title, s.Artist)
		byKey[key] = append(byKey[key], DuplicateSong{
			ID:            s.ID,
			Identifier:    s.Identifier,
			Title:         s.Title,
			Artist:        s.Artist,
			ListenCount:   s.ListenCount,
			DownloadCount: s.DownloadCount,
			UploadDate:    s.CreatedAt,
		})
	}

	groups := make([]DuplicateGroup, 0)
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		groups = append(groups, DuplicateGroup{Key: key, Songs: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Songs) != len(groups[j].Songs) {
			return len(groups[i].Songs) > len(groups[j].Songs)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}

// ========== Orphaned files ==========

// MissingFile is a song whose audio file is not in storage.
type MissingFile struct {
	SongID     int64  `json:"songId"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Filename   string `json:"filename"`
}

// OrphanReport is the two-way difference between song rows and storage.
type OrphanReport struct {
	Missing   []MissingFile `json:"missing"`
	Untracked []string      `json:"untracked"`
}

// FindOrphanedFiles compares song filenames with existing, the names found
// in storage. Songs without a filename are ignored. Both lists come back
// sorted.
func (e *Engine) FindOrphanedFiles(ctx context.Context, existing []string) (OrphanReport, error) {
	songs, err := e.repos.Songs.List(ctx)
	if err != nil {
		return OrphanReport{}, err
	}

	present := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		present[name] = struct{}{}
	}
	referenced := make(map[string]struct{}, len(songs))

	report := OrphanReport{Missing: []MissingFile{}, Untracked: []string{}}
	for _, s := range songs {
		if s.Filename == "" {
			continue
		}
		referenced[s.Filename] = struct{}{}
		if _, ok := present[s.Filename]; !ok {
			report.Missing = append(report.Missing, MissingFile{
				SongID:     s.ID,
				Identifier: s.Identifier,
				Title:      s.Title,
				Filename:   s.Filename,
			})
		}
	}
	for name := range present {
		if _, ok := referenced[name]; !ok {
			report.Untracked = append(report.Untracked, name)
		}
	}

	sort.Slice(report.Missing, func(i, j int) bool {
		if report.Missing[i].Filename != report.Missing[j].Filename {
			return report.Missing[i].Filename < report.Missing[j].Filename
		}
		return report.Missing[i].SongID < report.Missing[j].SongID
	})
	sort.Strings(report.Untracked)
	return report, nil
}

// ========== Case repair ==========

// Dimensions that FixCase accepts.
const (
	DimensionAlbum  = "album"
	DimensionGenre  = "genre"
	DimensionArtist = "artist"
)

// CaseFix describes one canonicalized value.
type CaseFix struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
	Rows      int      `json:"rows"`
}

// FixCaseResult summarizes a FixCase run.
type FixCaseResult struct {
	Dimension string    `json:"dimension"`
	Fixes     []CaseFix `json:"fixes"`
	Rows      int64     `json:"rows"`
}

// CanonicalCasing picks the spelling used most often among counts. Ties go
// to the spelling that sorts first.
func CanonicalCasing(counts map[string]int) string {
	best, bestN := "", -1
	for spelling, n := range counts {
		if n > bestN || (n == bestN && spelling < best) {
			best, bestN = spelling, n
		}
	}
	return best
}

// planCaseFixes groups values case-insensitively and maps every row that
// holds a non-canonical spelling to the canonical one. A spelling in
// preferred, keyed by lower-cased value, wins over the majority.
func planCaseFixes(values []repository.ColumnValue, preferred map[string]string) (map[int64]string, []CaseFix) {
	groups := make(map[string]map[string]int)
	for _, v := range values {
		key := strings.ToLower(v.Value)
		if groups[key] == nil {
			groups[key] = make(map[string]int)
		}
		groups[key][v.Value]++
	}

	canonical := make(map[string]string, len(groups))
	var fixes []CaseFix
	for key, spellings := range groups {
		c := CanonicalCasing(spellings)
		if p, ok := preferred[key]; ok {
			c = p
		}
		canonical[key] = c
		if _, only := spellings[c]; only && len(spellings) == 1 {
			continue
		}
		fix := CaseFix{Canonical: c}
		for spelling, n := range spellings {
			if spelling != c {
				fix.Variants = append(fix.Variants, spelling)
				fix.Rows += n
			}
		}
		sort.Strings(fix.Variants)
		fixes = append(fixes, fix)
	}
	sort.Slice(fixes, func(i, j int) bool {
		return strings.ToLower(fixes[i].Canonical) < strings.ToLower(fixes[j].Canonical)
	})

	updates := make(map[int64]string)
	for _, v := range values {
		if c := canonical[strings.ToLower(v.Value)]; c != v.Value {
			updates[v.ID] = c
		}
	}
	return updates, fixes
}

// FixCase canonicalizes the casing of album, genre or artist values in one
// transaction. For genres the Genre row's spelling beats the majority,
// unlinked songs are linked to the Genre row their text now names, and
// linked songs get their text reset to the Genre name.
func (e *Engine) FixCase(ctx context.Context, dimension string) (FixCaseResult, error) {
	switch dimension {
	case DimensionAlbum, DimensionGenre, DimensionArtist:
	default:
		return FixCaseResult{}, model.NewValidation("dimension", "must be one of album, genre, artist; got %q", dimension)
	}

	// Genre rows name the canonical spelling of their own group.
	var preferred map[string]string
	if dimension == DimensionGenre {
		genres, err := e.repos.Genres.List(ctx)
		if err != nil {
			return FixCaseResult{}, err
		}
		preferred = make(map[string]string, len(genres))
		for _, g := range genres {
			preferred[strings.ToLower(g.Name)] = g.Name
		}
	}

	result := FixCaseResult{Dimension: dimension, Fixes: []CaseFix{}}
	rows, err := e.repos.Songs.RewriteColumn(ctx, dimension, func(values []repository.ColumnValue) (map[int64]string, error) {
		updates, fixes := planCaseFixes(values, preferred)
		result.Fixes = fixes
		return updates, nil
	})
	if err != nil {
		return FixCaseResult{}, err
	}
	result.Rows = rows

	metrics.RowsRewritten.WithLabelValues("fix_case_" + dimension).Add(float64(rows))
	logger.Info("case repair finished",
		logger.String("dimension", dimension),
		logger.Int("groups", len(result.Fixes)),
		logger.Int64("rows", rows))
	return result, nil
}

// ========== Album merge and rename ==========

// MergeAlbums points every song whose album matches one of sources,
// case-insensitively, at target. Songs already on target are not
// rewritten, so a repeat run changes nothing.
func (e *Engine) MergeAlbums(ctx context.Context, sources []string, target string) (int64, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return 0, model.NewValidation("target", "is required")
	}
	keys := make(map[string]bool, len(sources))
	for _, src := range sources {
		if src = strings.TrimSpace(src); src != "" {
			keys[strings.ToLower(src)] = true
		}
	}
	if len(keys) == 0 {
		return 0, model.NewValidation("sources", "at least one source album is required")
	}

	rows, err := e.repos.Songs.RewriteColumn(ctx, DimensionAlbum, func(values []repository.ColumnValue) (map[int64]string, error) {
		updates := make(map[int64]string)
		for _, v := range values {
			if keys[strings.ToLower(v.Value)] && v.Value != target {
				updates[v.ID] = target
			}
		}
		return updates, nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RowsRewritten.WithLabelValues("merge_albums").Add(float64(rows))
	logger.Info("albums merged",
		logger.Strings("sources", sources),
		logger.String("target", target),
		logger.Int64("rows", rows))
	return rows, nil
}

// RenameAlbum moves every song on album oldName, matched case-insensitively,
// to newName. It fails with NotFoundError when no song is on oldName.
func (e *Engine) RenameAlbum(ctx context.Context, oldName, newName string) (int64, error) {
	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
	if oldName == "" {
		return 0, model.NewValidation("old", "is required")
	}
	if newName == "" {
		return 0, model.NewValidation("new", "is required")
	}
	oldKey := strings.ToLower(oldName)

	rows, err := e.repos.Songs.RewriteColumn(ctx, DimensionAlbum, func(values []repository.ColumnValue) (map[int64]string, error) {
		found := false
		updates := make(map[int64]string)
		for _, v := range values {
			if strings.ToLower(v.Value) != oldKey {
				continue
			}
			found = true
			if v.Value != newName {
				updates[v.ID] = newName
			}
		}
		if !found {
			return nil, model.NewNotFound("album", oldName)
		}
		return updates, nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RowsRewritten.WithLabelValues("rename_album").Add(float64(rows))
	logger.Info("album renamed",
		logger.String("old", oldName),
		logger.String("new", newName),
		logger.Int64("rows", rows))
	return rows, nil
}
