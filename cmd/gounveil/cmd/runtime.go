package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gounveil/internal/aggregator"
	"github.com/dbsmedya/gounveil/internal/config"
	"github.com/dbsmedya/gounveil/internal/database"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/report"
)

// commandEnv is what every database-backed command needs.
type commandEnv struct {
	cfg  *config.Config
	log  *logger.Logger
	db   *database.Manager
	ctx  context.Context
	stop context.CancelFunc
}

// loadConfig loads the config file, applies CLI overrides and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyOverrides(GetCLIOverrides())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration, creates the logger, wires SIGINT/SIGTERM into
// the command context and connects to the CMS database.
func setup() (*commandEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := database.SetupSignalHandler(context.Background(), func(sig os.Signal) {
		log.Warnw("Received signal, stopping", "signal", sig.String())
	})

	dbManager := database.NewManager(&cfg.Database)
	if err := dbManager.Connect(ctx); err != nil {
		stop()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbManager.Ping(ctx); err != nil {
		stop()
		_ = dbManager.Close()
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return &commandEnv{cfg: cfg, log: log, db: dbManager, ctx: ctx, stop: stop}, nil
}

func (e *commandEnv) Close() {
	if err := e.db.Close(); err != nil {
		e.log.Warnw("Failed to close database", "error", err)
	}
	e.stop()
	_ = e.log.Sync()
}

// present renders doc in the configured output format.
func present(cmd *cobra.Command, cfg *config.Config, doc *report.Document) error {
	mode, err := aggregator.ParseMode(cfg.Output.GroupBy)
	if err != nil {
		return err
	}
	printer := report.NewPrinter(cmd.OutOrStdout(), !cfg.Output.NoColor)

	switch cfg.Output.Format {
	case "json":
		data, err := doc.JSON(mode)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	case "file":
		if err := report.WriteFile(cfg.Output.File, doc, mode); err != nil {
			return err
		}
		printer.Success("URLs written to %s", cfg.Output.File)
	default:
		printer.Text(doc, mode)
		fmt.Fprintln(cmd.OutOrStdout())
	}

	printer.Failures(doc)
	printer.Summary(doc)
	return nil
}
