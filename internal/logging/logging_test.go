package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: LevelWarn, Out: &buf})
	require.NoError(t, err)
	defer closer.Close()

	l := Component(log, "face2d")
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "face2d", entry["component"])
	assert.Equal(t, "avatarstage", entry["app"])
}

func TestNewWithLogDir(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: LevelDebug, LogDir: dir, Out: &buf})
	require.NoError(t, err)

	log.Debug().Msg("hello")
	require.NoError(t, closer.Close())

	files, err := filepath.Glob(filepath.Join(dir, "avatarstage_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.True(t, cfg.Console)
	assert.Equal(t, os.Stderr, cfg.Out)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(LevelDebug))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel(LevelError))
}
