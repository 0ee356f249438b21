package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"hastingtx/core/catalog"
	"hastingtx/model"

	"github.com/spf13/cobra"
)

var (
	songOrder  string
	songLimit  int
	songCreate bool
	showLyrics bool
	lyricsSrc  string
	songUpdate catalog.SongUpdate
	updateArgs struct {
		title, artist, album, genre, description, coverArt, composer, lyricist string
	}
)

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "Inspect and edit songs",
}

func printSongs(songs []model.Song) error {
	if jsonOutput() {
		if songs == nil {
			songs = []model.Song{}
		}
		return printJSON(songs)
	}
	tw := newTable()
	fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tALBUM\tGENRE\tLENGTH\tLISTENS\tDOWNLOADS")
	for _, s := range songs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			s.ID, truncate(s.Title, 40), orDash(truncate(s.Artist, 24)), orDash(truncate(s.Album, 24)),
			orDash(s.Genre), formatDuration(s.Duration), s.ListenCount, s.DownloadCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d song(s)\n", len(songs))
	return nil
}

// lookupSong accepts either a numeric id or a song identifier.
func lookupSong(ctx context.Context, cat *catalog.Catalog, ref string) (*model.Song, error) {
	if id, err := parseID(ref); err == nil {
		return cat.GetSong(ctx, id)
	}
	return cat.GetSongByIdentifier(ctx, ref)
}

var songsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List songs",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		songs, err := cat.ListSongs(ctx, songOrder, songLimit)
		if err != nil {
			return err
		}
		return printSongs(songs)
	}),
}

var songsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search titles, artists, albums and descriptions",
	Args:  cobra.MinimumNArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		songs, err := cat.SearchSongs(ctx, strings.Join(args, " "), songLimit)
		if err != nil {
			return err
		}
		return printSongs(songs)
	}),
}

var songsShowCmd = &cobra.Command{
	Use:   "show <id|identifier>",
	Short: "Show one song with its rating",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		song, err := lookupSong(ctx, cat, args[0])
		if err != nil {
			return err
		}
		summary, err := cat.RatingSummary(ctx, song.ID)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(struct {
				*model.Song
				Rating model.RatingSummary `json:"rating"`
			}{song, summary})
		}

		tags := make([]string, len(song.Tags))
		for i, t := range song.Tags {
			tags[i] = t.Name
		}
		rating := fmt.Sprintf("%d vote(s), hidden until %d", summary.Count, cat.MinVotes())
		if summary.Visible {
			rating = fmt.Sprintf("%.2f from %d vote(s)", summary.Average, summary.Count)
		}

		tw := newTable()
		fmt.Fprintf(tw, "ID\t%d\n", song.ID)
		fmt.Fprintf(tw, "Identifier\t%s\n", song.Identifier)
		fmt.Fprintf(tw, "Title\t%s\n", song.Title)
		fmt.Fprintf(tw, "Artist\t%s\n", orDash(song.Artist))
		fmt.Fprintf(tw, "Album\t%s\n", orDash(song.Album))
		fmt.Fprintf(tw, "Genre\t%s\n", orDash(song.Genre))
		fmt.Fprintf(tw, "Tags\t%s\n", orDash(strings.Join(tags, ", ")))
		fmt.Fprintf(tw, "Composer\t%s\n", orDash(song.Composer))
		fmt.Fprintf(tw, "Lyricist\t%s\n", orDash(song.Lyricist))
		fmt.Fprintf(tw, "File\t%s\n", orDash(song.Filename))
		fmt.Fprintf(tw, "Length\t%s\n", formatDuration(song.Duration))
		fmt.Fprintf(tw, "Listens\t%d\n", song.ListenCount)
		fmt.Fprintf(tw, "Downloads\t%d\n", song.DownloadCount)
		fmt.Fprintf(tw, "Rating\t%s\n", rating)
		fmt.Fprintf(tw, "Uploaded\t%s\n", song.CreatedAt.Format("2006-01-02 15:04"))
		if err := tw.Flush(); err != nil {
			return err
		}
		if showLyrics && song.Lyrics != "" {
			fmt.Printf("\nLyrics:\n%s\n", truncate(song.Lyrics, lyricsPreviewLen))
		}
		return nil
	}),
}

const lyricsPreviewLen = 500

// readLyrics reads lyrics from the file at source, or from stdin when source
// is "-".
func readLyrics(source string, stdin io.Reader) (string, error) {
	if source == "" {
		return "", errors.New("no lyrics source given")
	}
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return "", fmt.Errorf("read lyrics from %s: %w", source, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

var songsLyricsCmd = &cobra.Command{
	Use:   "lyrics <id|identifier>",
	Short: "Show or set the lyrics of a song",
	Long:  `Print the lyrics of a song, or replace them with --set <file> (use - to read stdin).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var lyrics *string
		if cmd.Flags().Changed("set") {
			text, err := readLyrics(lyricsSrc, cmd.InOrStdin())
			if err != nil {
				return err
			}
			lyrics = &text
		}

		return withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
			song, err := lookupSong(ctx, cat, args[0])
			if err != nil {
				return err
			}
			if lyrics == nil {
				if song.Lyrics == "" {
					fmt.Println("(No lyrics)")
					return nil
				}
				fmt.Println(song.Lyrics)
				return nil
			}
			if _, err := cat.UpdateSong(ctx, song.ID, catalog.SongUpdate{Lyrics: lyrics}); err != nil {
				return err
			}
			fmt.Printf("Updated lyrics for song %d.\n", song.ID)
			return nil
		})(cmd, args)
	},
}

var songsUpdateCmd = &cobra.Command{
	Use:   "update <id|identifier>",
	Short: "Change song metadata",
	Long:  `Change song metadata. Only the flags given are applied.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		bind := func(name string, src *string, dst **string) {
			if flags.Changed(name) {
				*dst = src
			}
		}
		bind("title", &updateArgs.title, &songUpdate.Title)
		bind("artist", &updateArgs.artist, &songUpdate.Artist)
		bind("album", &updateArgs.album, &songUpdate.Album)
		bind("genre", &updateArgs.genre, &songUpdate.Genre)
		bind("description", &updateArgs.description, &songUpdate.Description)
		bind("cover", &updateArgs.coverArt, &songUpdate.CoverArt)
		bind("composer", &updateArgs.composer, &songUpdate.Composer)
		bind("lyricist", &updateArgs.lyricist, &songUpdate.Lyricist)

		return withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
			song, err := lookupSong(ctx, cat, args[0])
			if err != nil {
				return err
			}
			updated, err := cat.UpdateSong(ctx, song.ID, songUpdate)
			if err != nil {
				return err
			}
			fmt.Printf("Updated song %d (%s).\n", updated.ID, updated.Title)
			return nil
		})(cmd, args)
	},
}

var songsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a song with its votes, tags and playlist memberships",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := cat.DeleteSong(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted song %d.\n", id)
		return nil
	}),
}

var songsMissingCmd = &cobra.Command{
	Use:   "missing <field>",
	Short: "List songs without a value for a field",
	Long:  `List songs without a value for one of: ` + strings.Join(model.MissingFields, ", ") + ` (or "cover").`,
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		songs, err := cat.SongsMissing(ctx, args[0], songLimit)
		if err != nil {
			return err
		}
		return printSongs(songs)
	}),
}

var songsSetGenreCmd = &cobra.Command{
	Use:   "set-genre <genre> <song-id>...",
	Short: "Link songs to a genre",
	Long:  `Link songs to a genre. An empty genre ("") clears it. With --create a missing genre is created first.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}
		rows, err := cat.SetGenre(ctx, ids, args[0], songCreate)
		if errors.Is(err, model.ErrNotFound) && !songCreate {
			return fmt.Errorf("%w (use --create to add it)", err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Updated %d song(s).\n", rows)
		return nil
	}),
}

var songsSetAlbumCmd = &cobra.Command{
	Use:   "set-album <album> <song-id>...",
	Short: "Assign an album to songs",
	Args:  cobra.MinimumNArgs(2),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}
		rows, err := cat.SetAlbum(ctx, ids, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Updated %d song(s).\n", rows)
		return nil
	}),
}

var songsTagCmd = &cobra.Command{
	Use:   "tag <id> [tag]...",
	Short: "Replace the tags of a song",
	Long:  `Replace the tags of a song. Giving no tags clears them.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tags, err := cat.SetSongTags(ctx, id, args[1:])
		if err != nil {
			return err
		}
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = t.Name
		}
		fmt.Printf("Song %d tags: %s\n", id, orDash(strings.Join(names, ", ")))
		return nil
	}),
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags with their song counts",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		tags, err := cat.Tags(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			if tags == nil {
				tags = []model.TagCount{}
			}
			return printJSON(tags)
		}
		tw := newTable()
		fmt.Fprintln(tw, "TAG\tSONGS")
		for _, t := range tags {
			fmt.Fprintf(tw, "%s\t%d\n", t.Name, t.SongCount)
		}
		return tw.Flush()
	}),
}

func init() {
	songsListCmd.Flags().StringVar(&songOrder, "order", catalog.SongOrderID, "order: id, title, date, album or listens")
	for _, c := range []*cobra.Command{songsListCmd, songsSearchCmd, songsMissingCmd} {
		c.Flags().IntVar(&songLimit, "limit", 0, "maximum number of songs (0 for all)")
	}
	songsShowCmd.Flags().BoolVarP(&showLyrics, "lyrics", "l", false, "include the start of the lyrics")
	songsLyricsCmd.Flags().StringVar(&lyricsSrc, "set", "", "replace the lyrics with the contents of a file, or - for stdin")
	songsSetGenreCmd.Flags().BoolVar(&songCreate, "create", false, "create the genre if it does not exist")

	f := songsUpdateCmd.Flags()
	f.StringVar(&updateArgs.title, "title", "", "song title")
	f.StringVar(&updateArgs.artist, "artist", "", "artist")
	f.StringVar(&updateArgs.album, "album", "", "album")
	f.StringVar(&updateArgs.genre, "genre", "", "genre name")
	f.StringVar(&updateArgs.description, "description", "", "description")
	f.StringVar(&updateArgs.coverArt, "cover", "", "cover art filename")
	f.StringVar(&updateArgs.composer, "composer", "", "composer")
	f.StringVar(&updateArgs.lyricist, "lyricist", "", "lyricist")

	songsCmd.AddCommand(songsListCmd, songsSearchCmd, songsShowCmd, songsUpdateCmd, songsDeleteCmd,
		songsMissingCmd, songsSetGenreCmd, songsSetAlbumCmd, songsTagCmd, songsLyricsCmd)
	rootCmd.AddCommand(songsCmd, tagsCmd)
}
