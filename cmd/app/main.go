package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spam-trainer/internal/bootstrap"
	"spam-trainer/internal/config"
	"spam-trainer/internal/logging"
	"spam-trainer/internal/metrics"
)

func main() {
	env, found := config.LoadEnv(".env")
	logger := logging.New(env.Log, env.Dev)
	if !found {
		logger.Debug().Msg("no .env file, using process environment")
	}

	metrics.MustRegister()
	if env.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info().Str("addr", env.MetricsAddr).Msg("metrics listening")
			if err := http.ListenAndServe(env.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	app, err := bootstrap.New(env, logger)
	if err != nil {
		logger.Error().Err(err).Msg("bootstrap app")
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		logger.Error().Err(err).Msg("run app")
		os.Exit(1)
	}
}
