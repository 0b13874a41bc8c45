package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"pixedit/config"
	"pixedit/store"
	"pixedit/surface"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Script   string `arg:"" optional:"" help:"Script file to run, - for stdin" default:"-"`
	Fresh    bool   `help:"Start from an empty canvas instead of the saved one" default:"false"`
	AutoSave bool   `help:"Save automatically after every change" default:"false"`
	Width    int    `help:"Canvas width, overrides the config"`
	Height   int    `help:"Canvas height, overrides the config"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("invalid canvas size %dx%d", c.Width, c.Height)
	}
	if c.Script != "-" {
		info, err := os.Stat(c.Script)
		if err == nil && info.IsDir() {
			err = fmt.Errorf("is a directory")
		}
		if err != nil {
			return fmt.Errorf("invalid script %q: %w", c.Script, err)
		}
	}
	return nil
}

func (c *CLICmd) Run(ctx context.Context, cfg *config.Config) error {
	opts, err := surface.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	if c.Width > 0 {
		opts.Width = c.Width
	}
	if c.Height > 0 {
		opts.Height = c.Height
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("could not close store", "path", cfg.Storage.Path, "error", closeErr)
		}
	}()
	opts.Store = st

	s, err := surface.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if !c.Fresh {
		if err := s.Load(ctx); err != nil && !errors.Is(err, surface.ErrNoSavedCanvas) {
			slog.Warn("saved canvas unusable, starting fresh", "error", err)
		}
	}
	s.SetAutoSave(c.AutoSave)

	var script io.Reader = os.Stdin
	if c.Script != "-" {
		f, err := os.Open(c.Script)
		if err != nil {
			return fmt.Errorf("could not open script %q: %w", c.Script, err)
		}
		defer f.Close()
		script = f
	}

	return NewRunner(s, os.Stdout, slog.Default().With("session", c.Script)).Run(ctx, script)
}
