package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "trace", want: LevelTrace},
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "bogus", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetupLoggerConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closers, err := setupLogger(&console, "info", "")
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("hidden")
	logger.Info("shown", "bytes", 12)
	logger.Error("failed")

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown bytes=12")
	assert.Contains(t, out, "level=ERROR msg=failed")
}

func TestSetupLoggerWithFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "dat2s.log")
	logger, closers, err := setupLogger(&console, "debug", path)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Debug("detail")
	logger.Warn("careful")
	require.NoError(t, closers[0].Close())

	assert.NotContains(t, console.String(), "detail")
	assert.Contains(t, console.String(), "careful")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=detail")
	assert.Contains(t, string(data), "msg=careful")
}

func TestSetupLoggerBadFile(t *testing.T) {
	_, _, err := setupLogger(&bytes.Buffer{}, "info", filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}

func TestTraceLevel(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := setupLogger(&console, "trace", "")
	require.NoError(t, err)
	logger.Log(t.Context(), LevelTrace, "very verbose")
	assert.Contains(t, console.String(), "very verbose")
}
