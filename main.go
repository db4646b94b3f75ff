package main

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var slogLevel = new(slog.LevelVar)

// newLogger builds the process logger. Stdout carries probe results, so logs
// always go to w (stderr in production).
func newLogger(w io.Writer, cfg Config) *slog.Logger {
	slogLevel.Set(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: slogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	cfg := loadConfig()
	slog.SetDefault(newLogger(os.Stderr, cfg))

	cmd := newApp(cfg, os.Stdout).command()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("tcping failed", "error", err)
		os.Exit(1)
	}
}
