package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/humanlike-coach/internal/adapters/http"
	"github.com/kirillkom/humanlike-coach/internal/bootstrap"
	"github.com/kirillkom/humanlike-coach/internal/config"
	"github.com/kirillkom/humanlike-coach/internal/observability/logging"
	"github.com/kirillkom/humanlike-coach/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Observer:        httpMetrics,
		Jobs:            cfg.JobsEnabled,
		WatchProfile:    true,
		OnBreakerChange: httpMetrics.ObserveBreakerState,
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	services := httpadapter.Services{
		Analyzer:  app.Analyzer,
		Feedback:  app.Feedback,
		Extractor: app.Extractor,
	}
	if app.Jobs != nil {
		services.Jobs = app.Jobs
		services.JobReader = app.Jobs
	}
	router := httpadapter.NewRouter(cfg, services, httpMetrics).Handler()

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		slog.Error("api_listen_failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.APIMaxConnections)
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "jobs_enabled", app.Jobs != nil)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
