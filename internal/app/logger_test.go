package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelByEnvironment(t *testing.T) {
	dev := NewLogger(&Config{AppEnv: "development"})
	require.True(t, dev.Enabled(context.Background(), slog.LevelDebug))

	prod := NewLogger(&Config{AppEnv: "production", LogFormat: "json"})
	require.False(t, prod.Enabled(context.Background(), slog.LevelDebug))
	require.True(t, prod.Enabled(context.Background(), slog.LevelInfo))
}
