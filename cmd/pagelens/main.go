// Package main provides the pagelens command-line interface.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/pagelens/internal/app"
	"github.com/dgallion1/pagelens/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pagelens",
	Short: "Summarize web pages and documents, then chat with them",
	Long:  "pagelens extracts the readable sections of a page, indexes them with a retrieval service, and answers questions grounded in the page text.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if configFile != "" {
			return os.Setenv(config.FileEnv, configFile)
		}
		return nil
	},
	SilenceUsage: true,
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (overrides "+config.FileEnv+")")
}

// loadApp reads configuration and builds the shared clients.
func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.New(cfg, app.NewLogger(cfg.LogLevel, os.Stderr)), nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
