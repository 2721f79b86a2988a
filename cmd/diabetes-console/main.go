package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/config"
	"diabetes-console/internal/frontend"
	"diabetes-console/internal/storage"
	"diabetes-console/internal/supervisor"
	"diabetes-console/internal/telemetry"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "dotenv error:", err)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)
	logConfig(logger, cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup("diabetes-console", Version, logger)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "err", err)
		}
	}()

	features := cfg.Features()

	var metrics *supervisor.Metrics
	if features.Metrics {
		metrics = supervisor.NewMetrics()
	}

	client, err := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("create backend client: %w", err)
	}
	client.Metrics = metrics
	client.Logger = logger

	store, err := storage.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open session storage: %w", err)
	}
	defer store.Close()

	var health *supervisor.HealthChecker
	if features.Health {
		health = supervisor.NewHealthChecker(client, cfg.HealthCheckInterval, cfg.HealthCheckTimeout, metrics, logger)
		defer health.Shutdown()
	}

	fe, err := frontend.New(frontend.Deps{
		Config:  cfg,
		API:     client,
		Store:   store,
		Health:  health,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           fe.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting diabetes-console", "listen", cfg.ListenAddr, "backend", cfg.BackendURL, "version", Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn", "warning":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

func logConfig(logger *slog.Logger, cfg config.Config) {
	logger.Info("configuration",
		"mode", string(cfg.Mode),
		"listen_addr", cfg.ListenAddr,
		"backend_url", cfg.BackendURL,
		"storage", string(cfg.Storage),
		"storage_path", cfg.StoragePath,
		"storage_max_rows", cfg.StorageMaxRows,
		"request_timeout", cfg.RequestTimeout,
		"unauthorized_policy", string(cfg.UnauthorizedPolicy),
		"upload_max_bytes", cfg.UploadMaxBytes,
		"health_check_interval", cfg.HealthCheckInterval,
		"session_cookie", cfg.SessionCookie,
		"cookie_secure", cfg.CookieSecure,
		"log_level", cfg.LogLevel,
	)
}
