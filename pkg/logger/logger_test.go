package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWithOptions_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "coach.log")
	l := NewWithOptions(Options{Level: "warn", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	l.Infow("Dropped below level", "user_id", 1)
	l.Warnw("Coach unreachable", "user_id", 42)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "exactly one JSON line expected, got %q", data)
	assert.Equal(t, "Coach unreachable", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, 42, entry["user_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithOptions_Development(t *testing.T) {
	l := NewWithOptions(Options{Development: true})
	assert.True(t, l.Desugar().Core().Enabled(zapcore.DebugLevel), "development logs debug")

	l = NewWithOptions(Options{Development: true, Level: "error"})
	assert.False(t, l.Desugar().Core().Enabled(zapcore.WarnLevel), "explicit level wins")
}
