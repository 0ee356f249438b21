package cmd

import (
	"context"
	"fmt"

	"hastingtx/core/catalog"
	"hastingtx/model"

	"github.com/spf13/cobra"
)

var albumOrder string

var albumsCmd = &cobra.Command{
	Use:     "albums",
	Aliases: []string{"album"},
	Short:   "Inspect and repair albums",
}

var albumsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List distinct albums with their song counts",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		albums, err := cat.Albums(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			if albums == nil {
				albums = []model.AlbumCount{}
			}
			return printJSON(albums)
		}
		tw := newTable()
		fmt.Fprintln(tw, "ALBUM\tSONGS")
		for _, a := range albums {
			fmt.Fprintf(tw, "%s\t%d\n", a.Album, a.Songs)
		}
		return tw.Flush()
	}),
}

var albumsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "List the songs of an album",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		var order []model.SortOrder
		if albumOrder != "" {
			order = append(order, model.SortOrder(albumOrder))
		}
		songs, err := cat.ResolveByAlbum(ctx, args[0], order...)
		if err != nil {
			return err
		}
		return printSongs(songs)
	}),
}

var albumsRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename an album on every song carrying it",
	Args:  cobra.ExactArgs(2),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		rows, err := cat.RenameAlbum(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Renamed %q to %q on %d song(s).\n", args[0], args[1], rows)
		return nil
	}),
}

var albumsMergeCmd = &cobra.Command{
	Use:   "merge <target> <source>...",
	Short: "Fold one or more albums into a target album",
	Args:  cobra.MinimumNArgs(2),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		rows, err := cat.MergeAlbums(ctx, args[1:], args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Moved %d song(s) to %q.\n", rows, args[0])
		return nil
	}),
}

func init() {
	albumsShowCmd.Flags().StringVar(&albumOrder, "order", "", "sort order: title or album (default title)")

	albumsCmd.AddCommand(albumsListCmd, albumsShowCmd, albumsRenameCmd, albumsMergeCmd)
	rootCmd.AddCommand(albumsCmd)
}
