package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchbook/internal/config"
	"matchbook/internal/engine"
	"matchbook/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	// Trade ids are generated under the engine lock.
	uuid.EnableRandPool()

	opts := []engine.Option{
		engine.WithCutoff(engine.Cutoff{
			Hour:     cfg.CutoffHour,
			Minute:   cfg.CutoffMinute,
			Location: cfg.Location,
		}),
	}
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		m, err := metrics.New(prometheus.DefaultRegisterer)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to register metrics")
		}
		opts = append(opts, engine.WithMetrics(m))

		metricsServer = metrics.NewServer(cfg.MetricsAddr, prometheus.DefaultGatherer)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server failed")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	// Setup the matching engine.
	eng := engine.New(opts...)
	log.Info().
		Int("cutoff_hour", cfg.CutoffHour).
		Int("cutoff_minute", cfg.CutoffMinute).
		Str("timezone", cfg.Location.String()).
		Msg("matching engine running")

	// Block until signalled.
	<-ctx.Done()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown")
		}
		cancel()
	}
	if err := eng.Close(); err != nil {
		log.Error().Err(err).Msg("engine shutdown")
	}
	log.Info().Int("resting_orders", eng.Size()).Msg("matching engine stopped")
}
