// Package database manages the read-only connection to the CMS database.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/dbsmedya/gounveil/internal/config"
)

// Manager owns the connection pool to the CMS database.
type Manager struct {
	DB     *sqlx.DB
	config *config.DatabaseConfig
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.DatabaseConfig) *Manager {
	return &Manager{
		config: cfg,
	}
}

// NewFromDB wraps an already opened *sql.DB. driver selects placeholder
// rebinding and identifier quoting; tests pass "sqlmock".
func NewFromDB(db *sql.DB, driver string) *Manager {
	return &Manager{
		DB:     sqlx.NewDb(db, driver),
		config: &config.DatabaseConfig{Driver: driver},
	}
}

// Driver returns the configured driver name.
func (m *Manager) Driver() string {
	if m.DB != nil {
		return m.DB.DriverName()
	}
	if m.config == nil {
		return ""
	}
	return m.config.Driver
}

// Connect opens and verifies the connection.
func (m *Manager) Connect(ctx context.Context) error {
	if m.config == nil {
		return fmt.Errorf("no database configuration")
	}

	db, err := m.connectWithRetry(ctx, m.config)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", m.config.Driver, err)
	}
	m.DB = db
	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = m.connect(cfg)
		if err == nil {
			pingErr := db.PingContext(ctx)
			if pingErr == nil {
				return db, nil
			}
			db.Close()
			err = pingErr
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// connect creates a connection pool without verifying it.
func (m *Manager) connect(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, BuildDSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a driver-specific DSN from configuration.
func BuildDSN(cfg *config.DatabaseConfig) string {
	switch cfg.Driver {
	case "postgres":
		return buildPostgresDSN(cfg)
	case "sqlite3":
		// Read-only: the tool never writes to the CMS.
		return fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", cfg.Path)
	default:
		return buildMySQLDSN(cfg)
	}
}

func buildMySQLDSN(cfg *config.DatabaseConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

func buildPostgresDSN(cfg *config.DatabaseConfig) string {
	sslmode := "prefer"
	switch cfg.TLS {
	case "disable":
		sslmode = "disable"
	case "required":
		sslmode = "require"
	}

	parts := []string{
		"host=" + pgValue(cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + pgValue(cfg.User),
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+pgValue(cfg.Password))
	}
	parts = append(parts, "dbname="+pgValue(cfg.Database), "sslmode="+sslmode)

	return strings.Join(parts, " ")
}

// pgValue quotes a key/value connection string value when lib/pq requires it.
func pgValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Close closes the connection pool.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("database close: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("database not connected")
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
