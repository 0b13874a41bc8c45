package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"pixedit/bucket"
	"pixedit/config"
	"pixedit/parallel"
	"pixedit/session"

	"github.com/alecthomas/kong"
)

type cli struct {
	Config    string `help:"TOML configuration file" type:"path" env:"PIXEDIT_CONFIG"`
	LogLevel  string `help:"Override the configured log level (debug, info, warn, error)"`
	LogFormat string `help:"Override the configured log format (text, json)"`
	Workers   int    `help:"Number of parallel workers, 0 uses every CPU" default:"0"`

	Fill    bucket.CLICmd  `cmd:"" help:"Flood fill every picture in a folder from the same seed"`
	Session session.CLICmd `cmd:"" help:"Run an editing script against the saved canvas"`
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var args cli
	kctx := kong.Parse(&args,
		kong.Name("pixedit"),
		kong.Description("Flood fill pictures and edit a persisted canvas with undo history."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	cfg, err := args.loadConfig()
	kctx.FatalIfErrorf(err)
	kctx.FatalIfErrorf(setupLogging(cfg.Logging))

	pool := parallel.Start(args.Workers)
	slog.Debug("running", "command", kctx.Command(), "config", args.Config)

	err = kctx.Run(pool, cfg)
	kctx.FatalIfErrorf(err)
}
