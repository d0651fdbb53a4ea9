package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/seed"
)

func newSeedCommand(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, categories and tasks from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cfg, root.logLevel())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := seed.NewImporter(a.db).ImportFile(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d users, %d categories, %d tasks\n", res.Users, res.Categories, res.Tasks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture file")
	return cmd
}
