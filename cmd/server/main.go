package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filedrop/backend/internal/api"
	"github.com/filedrop/backend/internal/config"
	"github.com/filedrop/backend/internal/logger"
	"github.com/filedrop/backend/internal/metrics"
	"github.com/filedrop/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML configuration file (optional)")
	envPath := flag.String("env", "config.env", "environment file (optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Advanced.LogLevel, cfg.Advanced.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	maxSize, err := cfg.MaxUploadBytes()
	if err != nil {
		return err
	}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			log.Warn("closing record store", zap.Error(err))
		}
	}()

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &api.Dependencies{
		Service:     upload.NewService(blobs, repo, maxSize, metrics.New(reg), log),
		Blobs:       blobs,
		Gatherer:    reg,
		Logger:      log,
		UploadLimit: cfg.Storage.MaxUploadSize,
		Version:     Version,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:         log,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.Server.AllowOrigins,
		BodyLimit:      fmt.Sprintf("%d", maxSize+(1<<20)),
		LogRequests:    cfg.Advanced.EnableRequestLogging,
		ShowErrDetails: cfg.Advanced.Environment != "production",
	})
	api.RegisterRoutes(e, api.NewHandlers(deps), deps)

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      e,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	log.Info("filedrop server starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("addr", s.Addr),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("max_upload_size", cfg.Storage.MaxUploadSize),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
