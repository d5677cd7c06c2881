package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/gounveil/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile      string
	envFile      string
	logLevel     string
	logFormat    string
	baseURL      string
	maxInstances int
	outputFormat string
	outputFile   string
	groupBy      string
	workers      int
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:   "gounveil",
	Short: "Wagtail admin and frontend URL discovery",
	Long: `gounveil enumerates every administrative and public-facing URL a Wagtail
CMS installation exposes, using the CMS database and a registration manifest,
and can verify each URL responds under an authenticated admin session.

Features:
  - Page, snippet, ModelAdmin, ModelViewSet, image and document URLs
  - Settings, sites, workflows, locales, redirects and forms sections
  - Console, file and JSON output grouped by interface or URL type
  - Authenticated liveness checks with optional parallel probing
  - JSON API for other tools`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "gounveil.yaml",
		"Path to configuration file (defaults are used when it does not exist)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Path to a .env file loaded before the configuration")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Discovery overrides
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "",
		"Override base URL (detected from the default site when unset)")
	rootCmd.PersistentFlags().IntVar(&maxInstances, "max-instances", -1,
		"Override instances sampled per content type (0 = unlimited)")

	// Output overrides
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"Override output format (console, file, json)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "file", "",
		"Override output file for --output file")
	rootCmd.PersistentFlags().StringVar(&groupBy, "group-by", "",
		"Override grouping (none, interface, type)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored console output")

	// Check overrides
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Override number of concurrent probes for check")
}

// loadEnvFile loads the .env file into the process environment. A missing
// file is not an error; variables already set are kept.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		BaseURL:      baseURL,
		MaxInstances: maxInstances,
		Output:       outputFormat,
		File:         outputFile,
		GroupBy:      groupBy,
		Workers:      workers,
		NoColor:      noColor,
	}
}
