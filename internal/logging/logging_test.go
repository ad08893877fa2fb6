package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "insarlogs",
			want:    filepath.Join("insarlogs", "insarmap.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./insarlogs",
			want:    filepath.Join(".", "insarlogs", "insarmap.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "insarmap"),
			want:    filepath.Join("/var", "log", "insarmap", "insarmap.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, AppName, sessionStart))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"TRACE":   zerolog.TraceLevel,
		" warn ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_WritesSessionFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	logger, closer, err := New(Options{Level: "debug", LogsDir: dir, Start: start})
	require.NoError(t, err)

	cl := Component(logger, "loader")
	cl.Debug().Int("sources", 2).Msg("loading")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(LogFilePath(dir, AppName, start))
	require.NoError(t, err)
	assert.Contains(t, string(data), "loading")
	assert.Contains(t, string(data), "component=loader")
	assert.Contains(t, string(data), "sources=2")
}

func TestNew_LevelFilters(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	logger, closer, err := New(Options{Level: "warn", LogsDir: dir, Start: start})
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(LogFilePath(dir, AppName, start))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
