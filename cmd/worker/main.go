package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"meetfix/internal/app/bootstrap"
	"meetfix/internal/platform/config"
	"meetfix/internal/platform/telemetry"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Start consumers and the outbox relay until SIGINT/SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.ServiceName+"-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	app, err := bootstrap.BuildWorker(ctx, cfg, bootstrap.NewLogger(cfg.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap worker")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close worker resources")
		}
	}()

	log.Info().Dur("poll_interval", cfg.PollInterval).Msg("starting meetfix worker")
	if err := app.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker stopped")
		return
	}
	log.Info().Msg("meetfix worker stopped")
}
