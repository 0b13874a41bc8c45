package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pixedit.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.History.MaxDepth)
	assert.Equal(t, 200*time.Millisecond, cfg.Timing.UndoThrottle())
	assert.Equal(t, 500*time.Millisecond, cfg.Timing.ClearThrottle())
	assert.Equal(t, 3*time.Second, cfg.Timing.AutoSave())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[canvas]
width = 320
height = 240

[history]
max_depth = 5
codec = "zstd"

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Canvas.Width)
	assert.Equal(t, 240, cfg.Canvas.Height)
	assert.Equal(t, 100, cfg.Canvas.MinSize)
	assert.Equal(t, 5, cfg.History.MaxDepth)
	assert.Equal(t, "zstd", cfg.History.Codec)
	assert.Equal(t, "canvas-work-save", cfg.Storage.Key)

	lvl, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"small canvas": "[canvas]\nwidth = 50\n",
		"huge canvas":  "[canvas]\nwidth = 100000\nheight = 100000\n",
		"bad color":    "[canvas]\nbackground = \"white\"\n",
		"bad depth":    "[history]\nmax_depth = 0\n",
		"bad codec":    "[history]\ncodec = \"lz4\"\n",
		"bad level":    "[logging]\nlevel = \"loud\"\n",
		"bad format":   "[logging]\nformat = \"xml\"\n",
		"negative":     "[timing]\nautosave_ms = -1\n",
		"syntax":       "[canvas\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
