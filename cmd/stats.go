package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hastingtx/core/catalog"
	"hastingtx/core/maintenance"
	"hastingtx/model"
	"hastingtx/storage"

	"github.com/spf13/cobra"
)

var (
	topMetric     string
	topLimit      int
	activityLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Catalog statistics",
}

var statsOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show catalog-wide totals",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		o, err := cat.Overview(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(o)
		}

		tw := newTable()
		fmt.Fprintf(tw, "Songs\t%d\n", o.Songs)
		fmt.Fprintf(tw, "Albums\t%d\n", o.Albums)
		fmt.Fprintf(tw, "Artists\t%d\n", o.Artists)
		fmt.Fprintf(tw, "Playlists\t%d\n", o.Playlists)
		fmt.Fprintf(tw, "Genres\t%d (%d songs with unlinked genre text)\n", o.Genres, o.UnlinkedGenres)
		fmt.Fprintf(tw, "Tags\t%d\n", o.Tags)
		fmt.Fprintf(tw, "Total length\t%s\n", formatHours(o.DurationSecs))
		fmt.Fprintf(tw, "Total size\t%s\n", storage.FormatSize(o.FileSizeBytes))
		fmt.Fprintf(tw, "Listens\t%d\n", o.Listens)
		fmt.Fprintf(tw, "Downloads\t%d\n", o.Downloads)
		fmt.Fprintf(tw, "Ratings\t%d on %d song(s), average %.2f\n", o.Ratings, o.RatedSongs, o.AverageRating)

		types := make([]string, 0, len(o.EventsByType))
		for t := range o.EventsByType {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(tw, "Events: %s\t%d\n", t, o.EventsByType[model.EventType(t)])
		}
		return tw.Flush()
	}),
}

// formatHours renders seconds as h:mm:ss.
func formatHours(secs int64) string {
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

var statsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank songs by listens, downloads or rating",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		top, err := cat.TopBy(ctx, topMetric, topLimit)
		if err != nil {
			return err
		}
		if jsonOutput() {
			if top == nil {
				top = []maintenance.TopEntry{}
			}
			return printJSON(top)
		}
		tw := newTable()
		if topMetric == maintenance.MetricRating {
			fmt.Fprintln(tw, "#\tID\tTITLE\tARTIST\tAVERAGE\tVOTES")
			for i, e := range top {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.2f\t%d\n", i+1, e.Song.ID,
					truncate(e.Song.Title, 40), orDash(e.Song.Artist), e.Value, e.Votes)
			}
		} else {
			fmt.Fprintf(tw, "#\tID\tTITLE\tARTIST\t%s\n", strings.ToUpper(topMetric))
			for i, e := range top {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.0f\n", i+1, e.Song.ID,
					truncate(e.Song.Title, 40), orDash(e.Song.Artist), e.Value)
			}
		}
		return tw.Flush()
	}),
}

var statsMissingCmd = &cobra.Command{
	Use:   "missing",
	Short: "Count songs lacking each optional field",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		fields, err := cat.MissingFieldsSummary(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(fields)
		}
		tw := newTable()
		fmt.Fprintln(tw, "FIELD\tMISSING\tTOTAL\tPERCENT")
		for _, f := range fields {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", f.Field, f.Missing, f.Total, f.Percent)
		}
		return tw.Flush()
	}),
}

var statsActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the latest uploads, votes and events",
	Args:  cobra.NoArgs,
	RunE: withCatalog(func(ctx context.Context, cat *catalog.Catalog, args []string) error {
		a, err := cat.RecentActivity(ctx, activityLimit)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(a)
		}

		const stamp = "2006-01-02 15:04"
		fmt.Println("Recent uploads")
		tw := newTable()
		for _, s := range a.Uploads {
			fmt.Fprintf(tw, "  %s\t%d\t%s\n", s.CreatedAt.Format(stamp), s.ID, s.Title)
		}
		tw.Flush()

		fmt.Println("\nRecent ratings")
		tw = newTable()
		for _, r := range a.Ratings {
			fmt.Fprintf(tw, "  %s\t%d\t%s\t%d/10\n", r.CreatedAt.Format(stamp), r.SongID, r.Title, r.Rating)
		}
		tw.Flush()

		fmt.Println("\nRecent events")
		tw = newTable()
		for _, e := range a.Events {
			target := e.Page
			if e.SongID != nil {
				target = fmt.Sprintf("song %d", *e.SongID)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.CreatedAt.Format(stamp), e.EventType, orDash(target))
		}
		return tw.Flush()
	}),
}

func init() {
	statsTopCmd.Flags().StringVar(&topMetric, "metric", maintenance.MetricListens, "listens, downloads or rating")
	statsTopCmd.Flags().IntVar(&topLimit, "limit", maintenance.DefaultTopLimit, "number of songs")
	statsActivityCmd.Flags().IntVar(&activityLimit, "limit", catalog.DefaultRecentLimit, "entries per section")

	statsCmd.AddCommand(statsOverviewCmd, statsTopCmd, statsMissingCmd, statsActivityCmd)
	rootCmd.AddCommand(statsCmd)
}
