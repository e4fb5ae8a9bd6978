package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"spam-trainer/internal/bootstrap"
	"spam-trainer/internal/config"
	"spam-trainer/internal/logging"
	"spam-trainer/internal/metrics"
	"spam-trainer/internal/web"
)

func main() {
	env, _ := config.LoadEnv(".env")
	logger := logging.New(env.Log, env.Dev)

	metrics.MustRegister()

	app, err := bootstrap.New(env, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap app")
	}

	server := web.NewServer(app, env.Web, logging.Component(logger, "http"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info().Msg("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	if err := server.Listen(); err != nil {
		logger.Error().Err(err).Msg("listen")
	}
	app.Shutdown(context.Background())
}
