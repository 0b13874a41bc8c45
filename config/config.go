// Package config handles configuration loading and validation for pixedit.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pixedit/history"
	"pixedit/pixbuf"
	"pixedit/snapshot"

	"github.com/BurntSushi/toml"
)

// Config holds the complete editor configuration.
type Config struct {
	// Canvas configuration for new drawing surfaces.
	Canvas CanvasConfig `toml:"canvas"`

	// History configuration for undo/redo.
	History HistoryConfig `toml:"history"`

	// Timing configuration for throttled and debounced actions.
	Timing TimingConfig `toml:"timing"`

	// Storage configuration for saved canvases.
	Storage StorageConfig `toml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging"`
}

type CanvasConfig struct {
	// Width and Height of a fresh canvas in pixels.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// MinSize is the smallest width or height a resize accepts.
	MinSize int `toml:"min_size"`

	// Background is the hex color exports are flattened onto.
	Background string `toml:"background"`
}

type HistoryConfig struct {
	// MaxDepth is the number of snapshots kept for undo, baseline included.
	MaxDepth int `toml:"max_depth"`

	// Codec is the snapshot compression: "zlib" or "zstd".
	Codec string `toml:"codec"`
}

type TimingConfig struct {
	// UndoThrottleMs collapses repeated undo/redo triggers.
	UndoThrottleMs int `toml:"undo_throttle_ms"`

	// ClearThrottleMs collapses repeated clear triggers.
	ClearThrottleMs int `toml:"clear_throttle_ms"`

	// AutoSaveMs is the quiet period before an automatic save.
	AutoSaveMs int `toml:"autosave_ms"`
}

type StorageConfig struct {
	// Path is the SQLite database file.
	Path string `toml:"path"`

	// Key is the entry the canvas is saved under.
	Key string `toml:"key"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:      800,
			Height:     600,
			MinSize:    100,
			Background: "#FFFFFF",
		},
		History: HistoryConfig{
			MaxDepth: history.DefaultMaxDepth,
			Codec:    string(snapshot.Zlib),
		},
		Timing: TimingConfig{
			UndoThrottleMs:  200,
			ClearThrottleMs: 500,
			AutoSaveMs:      3000,
		},
		Storage: StorageConfig{
			Path: DefaultStoragePath(),
			Key:  "canvas-work-save",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultStoragePath places the database in the user config directory,
// falling back to the working directory.
func DefaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pixedit.db"
	}
	return filepath.Join(dir, "pixedit", "canvas.db")
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not parse config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("unknown config keys", "file", path, "keys", fmt.Sprint(undecoded))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Canvas.MinSize < 1 {
		errs = append(errs, fmt.Errorf("canvas.min_size must be positive: %d", c.Canvas.MinSize))
	}
	if c.Canvas.Width < c.Canvas.MinSize || c.Canvas.Height < c.Canvas.MinSize {
		errs = append(errs, fmt.Errorf("canvas size %dx%d below minimum %d", c.Canvas.Width, c.Canvas.Height, c.Canvas.MinSize))
	}
	if c.Canvas.Width > 0 && c.Canvas.Height > pixbuf.MaxPixels/c.Canvas.Width {
		errs = append(errs, fmt.Errorf("canvas size %dx%d exceeds %d pixels", c.Canvas.Width, c.Canvas.Height, pixbuf.MaxPixels))
	}
	if _, err := pixbuf.ParseHex(c.Canvas.Background); err != nil {
		errs = append(errs, fmt.Errorf("canvas.background: %w", err))
	}
	if c.History.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("history.max_depth must be positive: %d", c.History.MaxDepth))
	}
	if _, err := snapshot.NewCodec(snapshot.Format(c.History.Codec)); err != nil {
		errs = append(errs, fmt.Errorf("history.codec: %w", err))
	}
	if c.Timing.UndoThrottleMs < 0 || c.Timing.ClearThrottleMs < 0 || c.Timing.AutoSaveMs < 0 {
		errs = append(errs, errors.New("timing values must not be negative"))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	if c.Storage.Key == "" {
		errs = append(errs, errors.New("storage.key is required"))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Logging.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json: %q", f))
	}

	return errors.Join(errs...)
}

func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

func (t TimingConfig) UndoThrottle() time.Duration {
	return time.Duration(t.UndoThrottleMs) * time.Millisecond
}

func (t TimingConfig) ClearThrottle() time.Duration {
	return time.Duration(t.ClearThrottleMs) * time.Millisecond
}

func (t TimingConfig) AutoSave() time.Duration {
	return time.Duration(t.AutoSaveMs) * time.Millisecond
}
