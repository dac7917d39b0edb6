package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/storefront/internal/config"
)

func TestBuild_Levels(t *testing.T) {
	tests := []struct {
		level    string
		encoding string
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{level: "debug", encoding: "json", enabled: zapcore.DebugLevel, disabled: zapcore.Level(-2)},
		{level: "warn", encoding: "console", enabled: zapcore.WarnLevel, disabled: zapcore.InfoLevel},
		{level: "bogus", encoding: "json", enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel},
	}

	for _, test := range tests {
		t.Run(test.level, func(t *testing.T) {
			logger, err := Build(config.Observability{
				ServiceName: "storefront",
				LogLevel:    test.level,
				LogEncoding: test.encoding,
			})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(test.enabled))
			assert.False(t, logger.Core().Enabled(test.disabled))
		})
	}
}

func TestNew_SyncsOnStop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	logger, err := New(lc, config.Config{Observability: config.Observability{LogLevel: "info", LogEncoding: "json"}})
	require.NoError(t, err)
	require.NotNil(t, logger)

	lc.RequireStart()
	lc.RequireStop()
}
