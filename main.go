package main

import (
	"context"
	"os"

	"liquigen/internal/config"
	"liquigen/internal/container"
	"liquigen/internal/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	appConfig, err := config.Load()
	if err != nil {
		logging.Default().Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Configure(appConfig.Logging.Level, appConfig.Logging.Format)
	log := logging.Default()

	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create application container")
	}

	ctx := context.Background()
	server, err := appContainer.NewServer(ctx)
	if err != nil {
		appContainer.Shutdown(ctx)
		log.Fatal().Err(err).Msg("failed to initialize upload server")
	}

	log.Info().
		Str("output_dir", appConfig.Paths.OutputDir).
		Str("ledger_backend", appConfig.Ledger.Backend).
		Str("ledger_path", appConfig.Ledger.Path).
		Msg("changelog generator ready")

	if err := server.Run(":" + appConfig.Server.Port); err != nil {
		appContainer.Shutdown(ctx)
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
