package cms

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/gounveil/internal/logger"
)

// CoreTables must exist in every Wagtail database the tool can read.
var CoreTables = []string{
	"django_content_type",
	"wagtailcore_page",
	"wagtailcore_site",
	"wagtailcore_collection",
}

// PreflightError represents a preflight check failure.
type PreflightError struct {
	Check   string
	Message string
	Tables  []string
}

func (e *PreflightError) Error() string {
	if len(e.Tables) > 0 {
		return fmt.Sprintf("%s: %s (tables: %v)", e.Check, e.Message, e.Tables)
	}
	return fmt.Sprintf("%s: %s", e.Check, e.Message)
}

// PreflightChecker verifies the database looks like a Wagtail installation.
type PreflightChecker struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewPreflightChecker creates a new preflight checker.
func NewPreflightChecker(db *sqlx.DB, log *logger.Logger) (*PreflightChecker, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &PreflightChecker{db: db, logger: log}, nil
}

// RunAllChecks fails when a core table is missing and warns about missing
// optional tables (installed apps, manifest snippets). It returns the optional
// tables that were not found.
func (p *PreflightChecker) RunAllChecks(ctx context.Context, optional []string) ([]string, error) {
	p.logger.Info("Running preflight checks...")

	if err := p.ValidateTablesExist(ctx, CoreTables); err != nil {
		return nil, err
	}

	missing, err := p.MissingTables(ctx, optional)
	if err != nil {
		return nil, err
	}
	for _, table := range missing {
		p.logger.Warnw("optional table not found; its URLs will be listed without instances", "table", table)
	}

	p.logger.Info("All preflight checks PASSED")
	return missing, nil
}

// ValidateTablesExist returns a *PreflightError naming any table that does not exist.
func (p *PreflightChecker) ValidateTablesExist(ctx context.Context, tables []string) error {
	p.logger.Debug("Checking table existence...")

	missing, err := p.MissingTables(ctx, tables)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &PreflightError{
			Check:   "TABLE_EXISTENCE_CHECK",
			Message: "Wagtail tables not found in database",
			Tables:  missing,
		}
	}

	p.logger.Debugf("Table existence check PASSED (%d tables)", len(tables))
	return nil
}

// MissingTables returns the subset of tables absent from the database, in input order.
func (p *PreflightChecker) MissingTables(ctx context.Context, tables []string) ([]string, error) {
	if len(tables) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(tableListQuery(p.db.DriverName()), tables)
	if err != nil {
		return nil, fmt.Errorf("failed to build table query: %w", err)
	}

	var existing []string
	if err := p.db.SelectContext(ctx, &existing, p.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	found := make(map[string]bool, len(existing))
	for _, name := range existing {
		found[name] = true
	}

	var missing []string
	for _, table := range tables {
		if !found[table] {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

func tableListQuery(driver string) string {
	switch driver {
	case "postgres":
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name IN (?)"
	case "sqlite3":
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (?)"
	default:
		return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME IN (?)"
	}
}
