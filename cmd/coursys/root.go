package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "coursys/courselib/internal/apps"
	"coursys/courselib/pkg/cli"
	"coursys/courselib/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "coursys",
	Short: "Coursys data retention tool",
	Long: `Coursys deletes records that the course management system no longer
needs to keep.

Each model is purged by the policy attached to it, by a purger registered by
its application, or by an age policy override from the configuration file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// loadConfig initializes the process configuration from --config and the
// environment.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}
	return config.GetConfig(), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
