package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gounveil/internal/report"
	"github.com/dbsmedya/gounveil/internal/unveil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every admin and frontend URL of the CMS",
	Long: `List discovers content types from the CMS database and the registration
manifest, samples instances of each, and prints the admin and frontend URLs
they expose.

Example:
  gounveil list --config gounveil.yaml --max-instances 3 --group-by interface
  gounveil list --output json --group-by type`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := discover(env)
	if err != nil {
		return err
	}

	doc := report.NewDocument(result.BaseURL, env.cfg.Collection.MaxInstances, result.Entries)
	return present(cmd, env.cfg, doc)
}

// discover runs every collector once with the configured parameters.
func discover(env *commandEnv) (*unveil.RunResult, error) {
	orchestrator, err := unveil.NewOrchestrator(env.cfg, env.db, env.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if err := orchestrator.Initialize(env.ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	result, err := orchestrator.Run(env.ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	return result, nil
}
