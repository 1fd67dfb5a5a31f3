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

	"github.com/kdimtricp/xgtag/internal/api"
	"github.com/kdimtricp/xgtag/internal/app"
	"github.com/kdimtricp/xgtag/internal/config"
	"github.com/kdimtricp/xgtag/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize services", "error", err)
	}
	defer services.Close()

	router := api.NewRouter(&api.App{
		Lifecycle:     services.Lifecycle,
		Navigator:     services.Navigator,
		Projections:   services.Projections,
		Media:         services.Media,
		Log:           log.With("service", "API"),
		MaxUploadSize: cfg.MaxUploadSize,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Server starting",
		"port", cfg.Port,
		"record_backend", cfg.Records.Backend,
		"media_backend", cfg.Media.Backend,
		"max_upload_size", cfg.MaxUploadSize,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped", "error", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}
	}
}
