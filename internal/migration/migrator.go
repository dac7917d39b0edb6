package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
)

//go:embed migrations
var embedded embed.FS

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// Migrator wraps goose operations over the embedded SQL set for one dialect.
type Migrator struct {
	db      *sql.DB
	dialect goose.Dialect
	dir     string
	logger  *zap.Logger
}

// New constructs a goose-backed migrator for the configured driver.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	return NewForDB(conns.Writer.DB, cfg.Database.Driver, logger)
}

// NewForDB builds a migrator on a raw handle. Used by tests and tooling that
// open their own connections.
func NewForDB(db *sql.DB, driver string, logger *zap.Logger) (*Migrator, error) {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, dialect: dialect, dir: dir, logger: logger}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	provider, err := m.provider()
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")
			return nil
		}
		return err
	}

	m.logger.Info("migrations applied", zap.Int("count", len(results)))
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	provider, err := m.provider()
	if err != nil {
		return err
	}

	if all {
		if _, err := provider.DownTo(ctx, 0); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")
				return nil
			}
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if _, err := provider.Down(ctx); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")
				return nil
			}
			return err
		}
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps))
	return nil
}

// Version reports the highest applied migration.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	provider, err := m.provider()
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

func (m *Migrator) provider() (*goose.Provider, error) {
	sub, err := fs.Sub(embedded, m.dir)
	if err != nil {
		return nil, fmt.Errorf("open migrations for %s: %w", m.dialect, err)
	}
	return goose.NewProvider(m.dialect, m.db, sub)
}

func gooseDialect(driver string) (goose.Dialect, string, error) {
	switch driver {
	case "postgres", "pgx":
		return goose.DialectPostgres, "migrations/postgres", nil
	case "mysql":
		return goose.DialectMySQL, "migrations/mysql", nil
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) || errors.Is(err, goose.ErrNoMigrations) {
		return true
	}

	return strings.Contains(err.Error(), "no migrations")
}
