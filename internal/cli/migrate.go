package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/repository"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			db, err := repository.NewDB(dbOptions(cfg, root.logLevel()))
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", repository.DriverName(db))
			return nil
		},
	}
}
