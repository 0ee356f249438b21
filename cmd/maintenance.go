package cmd

import (
	"context"
	"fmt"
	"strings"

	"hastingtx/core/audio"
	"hastingtx/core/catalog"
	"hastingtx/core/maintenance"

	"github.com/spf13/cobra"
)

var (
	orphanSource   string
	durationDryRun bool
)

var maintenanceCmd = &cobra.Command{
	Use:     "maintenance",
	Aliases: []string{"maint"},
	Short:   "Find and repair catalog inconsistencies",
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List songs that share a normalized title and artist",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		groups, err := cat.FindDuplicates(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			if groups == nil {
				groups = []maintenance.DuplicateGroup{}
			}
			return printJSON(groups)
		}
		if len(groups) == 0 {
			fmt.Println("No duplicates found.")
			return nil
		}
		for _, g := range groups {
			fmt.Printf("%s (%d songs)\n", g.Key, len(g.Songs))
			tw := newTable()
			for _, s := range g.Songs {
				fmt.Fprintf(tw, "  %d\t%s\t%s\t%d listens\t%d downloads\t%s\n", s.ID, s.Identifier,
					truncate(s.Title, 40), s.ListenCount, s.DownloadCount, s.UploadDate.Format("2006-01-02"))
			}
			tw.Flush()
		}
		fmt.Printf("\n%d group(s).\n", len(groups))
		return nil
	}),
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Compare song filenames with the audio storage",
	Long: `List songs whose audio file is missing from storage and files in storage that no song references.
The storage is the upload folder or the MinIO bucket; --source auto uses MinIO when it is configured.`,
	Args: cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		lister, err := newLister(ctx, orphanSource)
		if err != nil {
			return err
		}
		report, err := cat.FindOrphanedFilesIn(ctx, lister)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(report)
		}

		fmt.Printf("Songs with a missing file: %d\n", len(report.Missing))
		tw := newTable()
		for _, m := range report.Missing {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", m.SongID, m.Filename, truncate(m.Title, 40))
		}
		tw.Flush()
		fmt.Printf("\nFiles no song references: %d\n", len(report.Untracked))
		for _, name := range report.Untracked {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}),
}

var fixCaseCmd = &cobra.Command{
	Use:       "fix-case <album|genre|artist>",
	Short:     "Unify the casing of album, genre or artist values",
	Long:      `Unify values that differ only in letter case. The spelling used by the most songs wins; ties go to the alphabetically first spelling.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{maintenance.DimensionAlbum, maintenance.DimensionGenre, maintenance.DimensionArtist},
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		res, err := cat.FixCase(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(res)
		}
		for _, f := range res.Fixes {
			fmt.Printf("  %s <- %s (%d song(s))\n", f.Canonical, strings.Join(f.Variants, ", "), f.Rows)
		}
		fmt.Printf("Rewrote %d %s value(s).\n", res.Rows, res.Dimension)
		return nil
	}),
}

var durationsCmd = &cobra.Command{
	Use:   "durations",
	Short: "Measure audio files for songs without a duration",
	Long: `Run ffprobe on the upload folder copy of every song whose duration is 0 and store the length in seconds.
The ffprobe binary is taken from FFPROBE_PATH.`,
	Args: cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		report, err := cat.FillDurations(ctx, cfg.UploadFolder, audio.NewFFmpegInspector(cfg.AudioToolPath), durationDryRun)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(report)
		}
		for _, name := range report.Missing {
			fmt.Printf("  missing: %s\n", name)
		}
		for _, name := range report.Failed {
			fmt.Printf("  unreadable: %s\n", name)
		}
		verb := "Updated"
		if durationDryRun {
			verb = "Would update"
		}
		fmt.Printf("%s %d of %d song(s) without a duration.\n", verb, report.Updated, report.Candidates)
		return nil
	}),
}

func init() {
	durationsCmd.Flags().BoolVar(&durationDryRun, "dry-run", false, "measure files without saving durations")
	orphansCmd.Flags().StringVar(&orphanSource, "source", sourceAuto, "audio storage: auto, local or minio")

	maintenanceCmd.AddCommand(duplicatesCmd, orphansCmd, fixCaseCmd, durationsCmd)
	rootCmd.AddCommand(maintenanceCmd)
}
