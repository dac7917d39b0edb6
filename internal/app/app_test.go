package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/Additional-Code/storefront/internal/app"
	"github.com/Additional-Code/storefront/internal/database"
)

func TestGraphsResolve(t *testing.T) {
	for name, opts := range map[string]fx.Option{
		"http":    app.HTTP,
		"worker":  app.Worker,
		"storage": fx.Options(app.Storage, fx.Invoke(func(*database.Connections) {})),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, fx.ValidateApp(opts, fx.NopLogger))
		})
	}
}
