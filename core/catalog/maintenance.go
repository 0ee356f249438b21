package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"hastingtx/core/audio"
	"hastingtx/core/maintenance"
	"hastingtx/logger"
	"hastingtx/model"
	"hastingtx/storage"
)

// FindDuplicates groups songs sharing a normalized title and artist.
func (c *Catalog) FindDuplicates(ctx context.Context) (groups []maintenance.DuplicateGroup, err error) {
	defer observe("find_duplicates", time.Now(), &err)
	return c.maintenance.FindDuplicates(ctx)
}

// FindOrphanedFiles compares song filenames with existing.
func (c *Catalog) FindOrphanedFiles(ctx context.Context, existing []string) (report maintenance.OrphanReport, err error) {
	defer observe("find_orphaned_files", time.Now(), &err)
	return c.maintenance.FindOrphanedFiles(ctx, existing)
}

// FindOrphanedFilesIn enumerates files through lister and compares them
// with the song table.
func (c *Catalog) FindOrphanedFilesIn(ctx context.Context, lister storage.FileLister) (report maintenance.OrphanReport, err error) {
	defer observe("find_orphaned_files", time.Now(), &err)
	names, err := lister.ListFilenames(ctx)
	if err != nil {
		return report, err
	}
	return c.maintenance.FindOrphanedFiles(ctx, names)
}

// FixCase canonicalizes the casing of one dimension.
func (c *Catalog) FixCase(ctx context.Context, dimension string) (res maintenance.FixCaseResult, err error) {
	defer observe("fix_case", time.Now(), &err)
	return c.maintenance.FixCase(ctx, dimension)
}

// MergeAlbums points songs on any of sources at target.
func (c *Catalog) MergeAlbums(ctx context.Context, sources []string, target string) (rows int64, err error) {
	defer observe("merge_albums", time.Now(), &err)
	return c.maintenance.MergeAlbums(ctx, sources, target)
}

// RenameAlbum moves songs on oldName to newName.
func (c *Catalog) RenameAlbum(ctx context.Context, oldName, newName string) (rows int64, err error) {
	defer observe("rename_album", time.Now(), &err)
	return c.maintenance.RenameAlbum(ctx, oldName, newName)
}

// Overview aggregates catalog-wide totals.
func (c *Catalog) Overview(ctx context.Context) (out model.Overview, err error) {
	defer observe("overview", time.Now(), &err)
	return c.maintenance.Overview(ctx)
}

// TopBy ranks songs by listens, downloads or rating.
func (c *Catalog) TopBy(ctx context.Context, metric string, limit int) (out []maintenance.TopEntry, err error) {
	defer observe("top_by", time.Now(), &err)
	return c.maintenance.TopBy(ctx, metric, limit)
}

// MissingFieldsSummary counts songs lacking each optional field.
func (c *Catalog) MissingFieldsSummary(ctx context.Context) (out []maintenance.MissingField, err error) {
	defer observe("missing_fields", time.Now(), &err)
	return c.maintenance.MissingFieldsSummary(ctx)
}

// DurationReport summarizes a FillDurations run.
type DurationReport struct {
	Candidates int      `json:"candidates"`
	Updated    int      `json:"updated"`
	Missing    []string `json:"missing"`
	Failed     []string `json:"failed"`
}

// FillDurations inspects the audio file of every song whose duration is unknown
// and stores the result. Files are resolved under dir. With dryRun set the
// songs are inspected but nothing is written.
func (c *Catalog) FillDurations(ctx context.Context, dir string, inspector audio.Inspector, dryRun bool) (report DurationReport, err error) {
	defer observe("fill_durations", time.Now(), &err)
	songs, err := c.repos.Songs.List(ctx)
	if err != nil {
		return report, err
	}
	report.Missing = []string{}
	report.Failed = []string{}

	for _, s := range songs {
		if s.Duration > 0 || s.Filename == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Candidates++

		path := filepath.Join(dir, filepath.Base(s.Filename))
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			report.Missing = append(report.Missing, s.Filename)
			continue
		}
		md, inspectErr := inspector.Inspect(ctx, path)
		if inspectErr != nil || md.Duration <= 0 {
			logger.Warn("Could not read song duration",
				logger.Int64("songId", s.ID),
				logger.String("file", s.Filename),
				logger.ErrorField(inspectErr))
			report.Failed = append(report.Failed, s.Filename)
			continue
		}
		if !dryRun {
			if err := c.repos.Songs.SetDuration(ctx, s.ID, md.Duration); err != nil {
				return report, err
			}
		}
		report.Updated++
	}
	return report, nil
}
