package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"hastingtx/core/catalog"
	"hastingtx/core/export"
	"hastingtx/logger"
	"hastingtx/model"

	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportPrefix string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog or a playlist",
}

// openOutput returns stdout when path is empty or "-".
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func exportSongs(format string) func(*cobra.Command, []string) error {
	return withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		songs, err := cat.ExportSongs(ctx)
		if err != nil {
			return err
		}
		w, closeFn, err := openOutput(exportOutput)
		if err != nil {
			return err
		}
		switch format {
		case export.FormatCSV:
			err = export.WriteCSV(w, songs)
		default:
			err = export.WriteJSON(w, songs)
		}
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		logger.Debug("Catalog exported",
			logger.String("format", format),
			logger.Int("songs", len(songs)),
			logger.String("output", exportOutput))
		return nil
	})
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export every song as CSV",
	Args:  cobra.NoArgs,
	RunE:  exportSongs(export.FormatCSV),
}

var exportJSONCmd = &cobra.Command{
	Use:   "json",
	Short: "Export every song as JSON",
	Args:  cobra.NoArgs,
	RunE:  exportSongs(export.FormatJSON),
}

var exportM3UCmd = &cobra.Command{
	Use:   "m3u <playlist>",
	Short: "Export a playlist as an extended M3U file",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		entries, p, err := cat.ResolveEntries(ctx, args[0])
		if err != nil {
			return err
		}
		songs := make([]model.Song, len(entries))
		for i, e := range entries {
			songs[i] = e.Song
		}

		w, closeFn, err := openOutput(exportOutput)
		if err != nil {
			return err
		}
		err = export.WriteM3U(w, p.Name, songs, exportPrefix)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		return err
	}),
}

func init() {
	for _, c := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportM3UCmd} {
		c.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	}
	exportM3UCmd.Flags().StringVar(&exportPrefix, "prefix", "", "prefix for each file path, e.g. a base URL or the upload folder")

	exportCmd.AddCommand(exportCSVCmd, exportJSONCmd, exportM3UCmd)
	rootCmd.AddCommand(exportCmd)
}
