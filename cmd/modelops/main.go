package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modelops/internal/api"
	"modelops/internal/config"
	"modelops/internal/lifecycle"
	"modelops/internal/logging"
	"modelops/internal/session"
	"modelops/internal/store"
	"modelops/internal/telemetry"
	"modelops/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "modelops: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file (and an in-memory
	// ring for the status bar).
	ring, closeLog, err := logging.Setup(cfg.LogFile, slog.LevelInfo)
	if err != nil {
		return err
	}
	defer closeLog()

	tp, err := telemetry.Init(ctx)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				slog.Warn("tracer shutdown", "error", err)
			}
		}()
	}

	st, err := store.New(cfg.StateDir)
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithStatusTimeouts(cfg.StatusTimeout, cfg.ForceStatusTimeout),
	}
	if t := tp.Tracer(); t != nil {
		opts = append(opts, api.WithTracer(t))
	}
	client := api.NewClient(cfg.APIURL, opts...)

	app := ui.NewAppModel(cfg, client, lifecycle.NewRegistry(), st, session.NewTracker(st), ring)
	defer app.Close()

	slog.Info("starting console", "api", cfg.APIURL)
	p := tea.NewProgram(app.AsTeaModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
