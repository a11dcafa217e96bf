// Package cmd implements the modelsearch command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/modelsearch/internal/config"
)

var (
	flagEnv        string
	flagBackendURL string
	flagLogLevel   string
	flagNoCache    bool
)

var rootCmd = &cobra.Command{
	Use:   "modelsearch",
	Short: "semantic model search with client-side filtering and grouping",
	Long: `modelsearch - semantic model search
  - search   query the backend and print grouped, filtered results
  - browse   interactive terminal browser
  - serve    headless HTTP API over a search session`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", config.GetEnv(), "config environment (reads config/<env>.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&flagBackendURL, "backend-url", "", "search backend URL, overrides backend.url")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "bypass the response cache")
}
