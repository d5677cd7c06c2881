package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gounveil/internal/server"
	"github.com/dbsmedya/gounveil/internal/unveil"
)

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve discovered URLs as JSON over HTTP",
	Long: `Serve starts an HTTP server exposing the URL inventory for other tools.

Endpoints:
  GET /health   liveness probe
  GET /urls/    discovered URLs; query parameters group_by (none, interface,
                type), max_instances and base_url

Discovery runs against the CMS database on every request.

Example:
  gounveil serve --config gounveil.yaml --address :9090
  curl 'http://localhost:9090/urls/?group_by=type&max_instances=2'`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "",
		"Override listen address (default from config, :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()
	out := cmd.OutOrStdout()

	if serveAddress != "" {
		env.cfg.Server.Address = serveAddress
	}

	discover := func(ctx context.Context, params unveil.Params) (*unveil.RunResult, error) {
		return unveil.Discover(ctx, env.cfg, env.db, env.log, params)
	}

	srv, err := server.NewServer(env.cfg.Server, env.cfg.Collection.MaxInstances, discover, env.log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Fprintf(out, "Serving URL inventory on %s\n", env.cfg.Server.Address)
	return srv.Run(env.ctx)
}
