package cmd

import (
	"fmt"

	"hastingtx/db"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog schema",
	Long:  `Create or extend the catalog tables and seed the reserved "all" playlist. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := db.Migrate(s.db); err != nil {
			return err
		}
		p, err := s.catalog.EnsureAllPlaylist(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Schema ready; playlist %q (id %d) present.\n", p.Identifier, p.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
