package cmd

import (
	"context"
	"fmt"
	"strconv"

	"hastingtx/core/catalog"
	"hastingtx/core/playlist"
	"hastingtx/model"

	"github.com/spf13/cobra"
)

var (
	playlistInput    playlist.CreateInput
	playlistSort     string
	playlistPrivate  bool
	playlistPosition int
)

var playlistsCmd = &cobra.Command{
	Use:     "playlists",
	Aliases: []string{"playlist"},
	Short:   "Manage playlists",
}

var playlistsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playlists with their song counts",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		playlists, err := cat.Playlists(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			if playlists == nil {
				playlists = []playlist.Summary{}
			}
			return printJSON(playlists)
		}
		tw := newTable()
		fmt.Fprintln(tw, "IDENTIFIER\tNAME\tORDER\tPUBLIC\tSONGS")
		for _, p := range playlists {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\n", p.Identifier, truncate(p.Name, 40), p.SortOrder, p.IsPublic, p.Songs)
		}
		return tw.Flush()
	}),
}

var playlistsShowCmd = &cobra.Command{
	Use:   "show <identifier>",
	Short: "Show a playlist's songs in playback order",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		entries, p, err := cat.ResolveEntries(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			if entries == nil {
				entries = []model.PlaylistEntry{}
			}
			return printJSON(struct {
				Playlist *model.Playlist        `json:"playlist"`
				Entries  []model.PlaylistEntry `json:"entries"`
			}{p, entries})
		}

		fmt.Printf("%s (%s, %s order)\n\n", p.Name, p.Identifier, p.SortOrder)
		tw := newTable()
		fmt.Fprintln(tw, "#\tPOS\tID\tTITLE\tARTIST\tALBUM")
		for i, e := range entries {
			pos := "-"
			if e.Position != nil {
				pos = strconv.Itoa(*e.Position)
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", i+1, pos, e.Song.ID,
				truncate(e.Song.Title, 40), orDash(e.Song.Artist), orDash(e.Song.Album))
		}
		return tw.Flush()
	}),
}

var playlistsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		in := playlistInput
		in.Name = args[0]
		in.SortOrder = model.SortOrder(playlistSort)
		public := !playlistPrivate
		in.IsPublic = &public
		p, err := cat.CreatePlaylist(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("Created playlist %q (%s).\n", p.Name, p.Identifier)
		return nil
	}),
}

var playlistsDeleteCmd = &cobra.Command{
	Use:   "delete <identifier>",
	Short: "Delete a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		if err := cat.DeletePlaylist(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted playlist %s.\n", args[0])
		return nil
	}),
}

var playlistsAddCmd = &cobra.Command{
	Use:   "add <identifier> <song-id>",
	Short: "Add a song to a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var position *int
		if cmd.Flags().Changed("position") {
			position = &playlistPosition
		}
		return withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if _, err := cat.AddToPlaylist(ctx, args[0], id, position); err != nil {
				return err
			}
			fmt.Printf("Added song %d to %s.\n", id, args[0])
			return nil
		})(cmd, args)
	},
}

var playlistsRemoveCmd = &cobra.Command{
	Use:   "remove <identifier> <song-id>",
	Short: "Remove a song from a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := cat.RemoveFromPlaylist(ctx, args[0], id); err != nil {
			return err
		}
		fmt.Printf("Removed song %d from %s.\n", id, args[0])
		return nil
	}),
}

var playlistsReorderCmd = &cobra.Command{
	Use:   "reorder <identifier> <song-id>...",
	Short: "Set the manual order of a playlist's songs",
	Long:  `Set the manual order of a playlist's songs. Every id must already be a member; members not listed keep their position.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}
		if err := cat.ReorderPlaylist(ctx, args[0], ids); err != nil {
			return err
		}
		fmt.Printf("Reordered %d song(s) in %s.\n", len(ids), args[0])
		return nil
	}),
}

var playlistsSetCmd = &cobra.Command{
	Use:   "set <identifier> [song-id]...",
	Short: "Replace a playlist's songs",
	Args:  cobra.MinimumNArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}
		if err := cat.SetPlaylistSongs(ctx, args[0], ids); err != nil {
			return err
		}
		fmt.Printf("Playlist %s now has %d song(s).\n", args[0], len(ids))
		return nil
	}),
}

func init() {
	f := playlistsCreateCmd.Flags()
	f.StringVar(&playlistInput.Identifier, "identifier", "", "URL identifier (derived from the name when empty)")
	f.StringVar(&playlistInput.Description, "description", "", "description")
	f.StringVar(&playlistSort, "sort", string(model.SortManual), "sort order: manual, title or album")
	f.BoolVar(&playlistPrivate, "private", false, "hide the playlist from public listings")

	playlistsAddCmd.Flags().IntVar(&playlistPosition, "position", 0, "explicit position in manual order")

	playlistsCmd.AddCommand(playlistsListCmd, playlistsShowCmd, playlistsCreateCmd, playlistsDeleteCmd,
		playlistsAddCmd, playlistsRemoveCmd, playlistsReorderCmd, playlistsSetCmd)
	rootCmd.AddCommand(playlistsCmd)
}
