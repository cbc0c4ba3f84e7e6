package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/JaimeStill/custodian/pkg/logger"
)

func TestNew(t *testing.T) {
	for _, format := range []string{logger.FormatJSON, logger.FormatConsole} {
		t.Run(format, func(t *testing.T) {
			l, err := logger.New(&logger.Config{Level: "warn", Format: format})
			require.NoError(t, err)

			assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
			assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := logger.New(&logger.Config{Level: "info", Format: "xml"})
	assert.Error(t, err)

	_, err = logger.New(&logger.Config{Level: "loud", Format: logger.FormatJSON})
	assert.Error(t, err)
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		format      string
	}{
		{"production defaults to json", "production", logger.FormatJSON},
		{"development defaults to console", "development", logger.FormatConsole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := logger.Config{}
			require.NoError(t, cfg.Finalize(tt.environment, nil))
			assert.Equal(t, "info", cfg.Level)
			assert.Equal(t, tt.format, cfg.Format)
		})
	}
}

func TestFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "debug")

	cfg := logger.Config{Level: "info"}
	require.NoError(t, cfg.Finalize("", &logger.Env{Level: "TEST_LOG_LEVEL"}))
	assert.Equal(t, "debug", cfg.Level)

	t.Setenv("TEST_LOG_LEVEL", "chatty")
	bad := logger.Config{}
	assert.Error(t, bad.Finalize("", &logger.Env{Level: "TEST_LOG_LEVEL"}))
}

func TestMerge(t *testing.T) {
	cfg := logger.Config{Level: "info", Format: logger.FormatConsole}
	cfg.Merge(&logger.Config{Format: logger.FormatJSON})

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, logger.FormatJSON, cfg.Format)
}
