package cmd

import (
	"fmt"

	"hastingtx/storage"

	"github.com/spf13/cobra"
)

var minioStatsOnly bool

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "List the audio bucket",
	Long:  `List the objects under MINIO_PREFIX in the configured bucket, or only their totals with --stats.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.MinioConfigured() {
			return fmt.Errorf("MinIO is not configured (set MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY)")
		}
		client, err := storage.NewMinioClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		objects, stats, err := client.ListObjects(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput() {
			if minioStatsOnly {
				return printJSON(stats)
			}
			if objects == nil {
				objects = []storage.ObjectInfo{}
			}
			return printJSON(objects)
		}

		if !minioStatsOnly {
			tw := newTable()
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, o := range objects {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Key, storage.FormatSize(o.Size), o.LastModified.Format("2006-01-02 15:04"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Println()
		}
		fmt.Printf("Bucket %s: %d object(s), %s", client.BucketName(), stats.TotalObjects, storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf(", last modified %s", stats.LastModified.Format("2006-01-02 15:04"))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	minioCmd.Flags().BoolVar(&minioStatsOnly, "stats", false, "only print bucket totals")
	rootCmd.AddCommand(minioCmd)
}
