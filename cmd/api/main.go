package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/auditor-console/internal/bootstrap"
	"github.com/bryanwahyu/auditor-console/internal/config"
	"github.com/bryanwahyu/auditor-console/internal/infra/httpserver"
	"github.com/bryanwahyu/auditor-console/internal/logging"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	handler := httpserver.NewRouter(httpserver.Options{
		Controller:     app.Controller,
		Renderer:       app.Renderer,
		Journal:        app.Journal,
		Health:         app.Health,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateCapacity:   cfg.RateLimit.Capacity,
		RateRefill:     cfg.RateLimit.RefillPerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", "error", err)
	}

	// let an in-flight submission finish recording, bounded by the same deadline
	done := make(chan struct{})
	go func() {
		app.Controller.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx2.Done():
		logger.Warn("abandoning in-flight submission")
	}
}
