package cmd

import (
	"context"
	"fmt"

	"hastingtx/core/catalog"
	"hastingtx/model"

	"github.com/spf13/cobra"
)

var (
	genrePopulated   bool
	genreParent      string
	genreDescription string
	genreOrder       string
)

var genresCmd = &cobra.Command{
	Use:     "genres",
	Aliases: []string{"genre"},
	Short:   "Manage the genre hierarchy",
}

var genresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List genres with their parent and song count",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		var (
			genres []model.GenreCount
			err    error
		)
		if genrePopulated {
			genres, err = cat.PopulatedGenres(ctx)
		} else {
			genres, err = cat.Genres(ctx)
		}
		if err != nil {
			return err
		}
		if jsonOutput() {
			if genres == nil {
				genres = []model.GenreCount{}
			}
			return printJSON(genres)
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tNAME\tPARENT\tSONGS")
		for _, g := range genres {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", g.ID, g.Name, orDash(g.ParentName), g.SongCount)
		}
		return tw.Flush()
	}),
}

var genresCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a genre",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		g, err := cat.CreateGenre(ctx, args[0], genreDescription, genreParent)
		if err != nil {
			return err
		}
		fmt.Printf("Created genre %q (id %d).\n", g.Name, g.ID)
		return nil
	}),
}

var genresSetParentCmd = &cobra.Command{
	Use:   "set-parent <genre> [parent]",
	Short: "Move a genre under a parent, or to the top level when no parent is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		parent := ""
		if len(args) == 2 {
			parent = args[1]
		}
		if err := cat.SetParentByName(ctx, args[0], parent); err != nil {
			return err
		}
		if parent == "" {
			fmt.Printf("%s is now a top-level genre.\n", args[0])
		} else {
			fmt.Printf("%s is now under %s.\n", args[0], parent)
		}
		return nil
	}),
}

var genresDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a genre",
	Long:  `Delete a genre. Its children become top-level genres and its songs keep the genre text without a link.`,
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		if err := cat.DeleteGenre(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted genre %s.\n", args[0])
		return nil
	}),
}

var genresSongsCmd = &cobra.Command{
	Use:   "songs <name>",
	Short: "List the songs of a genre",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		var order []model.SortOrder
		if genreOrder != "" {
			order = append(order, model.SortOrder(genreOrder))
		}
		songs, err := cat.ResolveByGenre(ctx, args[0], order...)
		if err != nil {
			return err
		}
		return printSongs(songs)
	}),
}

var genresAncestorsCmd = &cobra.Command{
	Use:   "ancestors <name>",
	Short: "Show the chain of parents above a genre",
	Args:  cobra.ExactArgs(1),
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		chain, err := cat.GenreAncestors(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			if chain == nil {
				chain = []model.Genre{}
			}
			return printJSON(chain)
		}
		line := args[0]
		for _, g := range chain {
			line += " < " + g.Name
		}
		fmt.Println(line)
		return nil
	}),
}

func init() {
	genresListCmd.Flags().BoolVar(&genrePopulated, "populated", false, "only genres that have songs")
	genresCreateCmd.Flags().StringVar(&genreParent, "parent", "", "parent genre name")
	genresCreateCmd.Flags().StringVar(&genreDescription, "description", "", "description")
	genresSongsCmd.Flags().StringVar(&genreOrder, "order", "", "sort order: title or album (default title)")

	genresCmd.AddCommand(genresListCmd, genresCreateCmd, genresSetParentCmd, genresDeleteCmd,
		genresSongsCmd, genresAncestorsCmd)
	rootCmd.AddCommand(genresCmd)
}
