// Command musiclist serves the musiclist HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"musiclist/internal/config"
	"musiclist/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal(err, "load configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		logging.Fatal(err, "open storage")
	}
	defer closeBackend()

	handler := newHTTPHandler(cfg, backend)

	if cfg.SeedDemo {
		if err := bootstrapDemoData(ctx, handler.services); err != nil {
			logging.Fatal(err, "seed demo data")
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Zerolog().Info().Str("addr", server.Addr).Str("storage", cfg.Storage).Msg("musiclist API starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal(err, "server failed")
		}
	}()

	<-ctx.Done()
	logging.Info("shutting down musiclist API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error(err, "server forced to shutdown")
	}
	logging.Info("musiclist API exited")
}
