package cmd

import (
	"hastingtx/db"
	"hastingtx/logger"
	"hastingtx/server"
	"hastingtx/storage"

	"github.com/spf13/cobra"
)

var (
	serverMigrate bool
	serverSource  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the catalog HTTP API",
	Long:  `Start the HTTP server that exposes the catalog as a JSON API. Admin routes are limited to ADMIN_IP_WHITELIST.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if serverMigrate {
			if err := db.Migrate(s.db); err != nil {
				return err
			}
			if _, err := s.catalog.EnsureAllPlaylist(ctx); err != nil {
				return err
			}
		}

		var lister storage.FileLister
		if l, err := newLister(ctx, serverSource); err != nil {
			logger.Warn("Audio storage unavailable, orphan detection disabled", logger.ErrorField(err))
		} else {
			lister = l
		}

		return server.Run(cfg, server.NewAPIHandler(s.catalog, lister, cfg))
	},
}

func init() {
	serverCmd.Flags().BoolVar(&serverMigrate, "migrate", true, "migrate the schema and seed the all playlist before serving")
	serverCmd.Flags().StringVar(&serverSource, "storage", sourceAuto, "audio storage for orphan detection: auto, local or minio")
	rootCmd.AddCommand(serverCmd)
}
