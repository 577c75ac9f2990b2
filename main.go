package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	configPath := os.Getenv(config.EnvConfigPath)
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}

	boot := logger.New("info")
	config.SetLogger(logger.Component(boot, "config"))
	if err := config.LoadConfig(configPath); err != nil {
		boot.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}
	cfg := config.AppConfig

	l := logger.New(cfg.Logging.Level)
	setLoggers(l)
	if envErr != nil {
		l.Debug().Err(envErr).Msg("No .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to start")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", srv.Addr).Str("site", cfg.Site.Name).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	l.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("HTTP server forced to shutdown")
	}

	// Pending autosaves are written after the last request has finished.
	a.Close()
	l.Info().Msg("Server exiting")
}
