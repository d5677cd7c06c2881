package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gounveil/internal/cms"
	"github.com/dbsmedya/gounveil/internal/unveil"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and runs preflight checks
against the CMS database before any URLs are collected.

Checks performed:
  - Configuration syntax and required fields
  - Registration manifest model keys and hooks
  - Database connectivity
  - Table existence for the core Wagtail tables
  - Optional tables for installed apps and manifest snippets
  - Configured sites and the detected base URL

Example:
  gounveil validate --config gounveil.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()
	out := cmd.OutOrStdout()

	env.log.Info("Starting validation checks...")

	fmt.Fprintf(out, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(out, "Config file: %s\n", GetConfigFile())
	fmt.Fprintf(out, "Database driver: %s\n", env.cfg.Database.Driver)
	fmt.Fprintf(out, "Manifest apps: %d\n\n", len(env.cfg.Apps))

	checker, err := cms.NewPreflightChecker(env.db.DB, env.log)
	if err != nil {
		return fmt.Errorf("failed to create preflight checker: %w", err)
	}

	missing, err := checker.RunAllChecks(env.ctx, unveil.OptionalTables(env.cfg))
	if err != nil {
		fmt.Fprintf(out, "❌ Preflight checks failed: %v\n\n", err)
		return fmt.Errorf("validation failed")
	}
	for _, table := range missing {
		fmt.Fprintf(out, "⚠️  Optional table not found: %s\n", table)
	}

	store := cms.NewStore(env.db.DB, env.log)
	sites, err := store.Sites(env.ctx)
	if err != nil {
		fmt.Fprintf(out, "❌ Site lookup failed: %v\n\n", err)
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintf(out, "\n--- Sites: %d ---\n", len(sites))
	for _, site := range sites {
		marker := ""
		if site.IsDefault {
			marker = " (default)"
		}
		fmt.Fprintf(out, "  %s root page %d%s\n", site.RootURL(), site.RootPageID, marker)
	}

	base := env.cfg.Site.BaseURL
	if base == "" {
		base = store.DetectBaseURL(env.ctx)
	}
	fmt.Fprintf(out, "Base URL: %s\n\n", base)

	fmt.Fprintln(out, "=== Validation Complete ===")
	fmt.Fprintln(out, "✅ All checks passed")
	return nil
}
