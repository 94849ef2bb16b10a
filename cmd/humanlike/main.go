package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/humanlike-coach/internal/adapters/cli"
	mcpadapter "github.com/kirillkom/humanlike-coach/internal/adapters/mcp"
	"github.com/kirillkom/humanlike-coach/internal/bootstrap"
	"github.com/kirillkom/humanlike-coach/internal/config"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/humanlike-coach/internal/observability/logging"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	// stdout carries reports and the MCP protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "cli", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	deps := cli.Deps{
		Analyzer:      app.Analyzer,
		Feedback:      app.Feedback,
		Extractor:     app.Extractor,
		MaxTextLength: cfg.MaxTextLength,
		ServeMCP: func(context.Context) error {
			return mcpadapter.NewServer(version, app.Analyzer, app.Feedback, cfg.MaxTextLength).ServeStdio()
		},
	}

	history, err := sqlite.Open(ctx, cfg.HistoryPath)
	if err != nil {
		slog.Warn("history_unavailable", "path", cfg.HistoryPath, "error", err)
	} else {
		defer history.Close()
		deps.History = history
	}

	root := cli.NewRootCommand(version, deps)
	root.SetOut(os.Stdout)
	return root.ExecuteContext(ctx)
}
