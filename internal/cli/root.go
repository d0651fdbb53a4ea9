// Package cli wires configuration, storage and services into cobra commands.
package cli

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"taskboard/internal/config"
)

type rootOptions struct {
	envFile string
	port    int
	apiURL  string
	debug   bool
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Task board backed by a REST API",
		Long: `taskboard serves tasks, categories and users over REST and ships
a terminal board that talks to that API.

Settings come from the environment or a dotenv file.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log every SQL statement")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newSeedCommand(opts))
	rootCmd.AddCommand(newReportCommand(opts))
	rootCmd.AddCommand(newBoardCommand(opts))

	return rootCmd
}

// loadConfig reads the environment and applies flag overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(o.envFile)
	if err != nil {
		return cfg, err
	}
	if o.port > 0 {
		cfg.Port = o.port
	}
	if o.apiURL != "" {
		cfg.APIURL = o.apiURL
	}
	return cfg, nil
}

func (o *rootOptions) logLevel() logger.LogLevel {
	if o.debug {
		return logger.Info
	}
	return logger.Warn
}
