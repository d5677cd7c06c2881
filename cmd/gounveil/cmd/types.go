package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gounveil/internal/report"
	"github.com/dbsmedya/gounveil/internal/unveil"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Show discovered content types without collecting URLs",
	Long: `Types lists the page, snippet, ModelAdmin, ModelViewSet, image and
document models gounveil would collect URLs for, with instance counts and an
estimate of how many URLs a list or check run would produce.

No URL is built and no request is sent to the CMS.

Example:
  gounveil types --config gounveil.yaml --max-instances 5`,
	RunE: runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()
	out := cmd.OutOrStdout()

	orchestrator, err := unveil.NewOrchestrator(env.cfg, env.db, env.log)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if err := orchestrator.Initialize(env.ctx); err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	estimator, err := orchestrator.Estimator()
	if err != nil {
		return err
	}
	result, err := estimator.Estimate(env.ctx)
	if err != nil {
		return fmt.Errorf("estimate failed: %w", err)
	}

	fmt.Fprintf(out, "Base URL: %s\n\n", orchestrator.BaseURL())
	report.NewPrinter(out, !env.cfg.Output.NoColor).Inventory(result)
	return nil
}
