// Package databasetest opens migrated in-memory databases for tests.
package databasetest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/migration"
)

// NewSQLite returns connections to a private in-memory SQLite database with
// every migration applied. The database is closed when the test ends.
func NewSQLite(t testing.TB) *database.Connections {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_", "?", "_", "&", "_").Replace(t.Name())
	cfg := config.Database{
		Driver:       "sqlite",
		WriterDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	conns, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	ctx := context.Background()
	require.NoError(t, conns.Ping(ctx))

	mig, err := migration.NewForDB(conns.Writer.DB, cfg.Driver, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, mig.Up(ctx))

	return conns
}
