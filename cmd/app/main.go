package main

import (
	"log/slog"
	"os"

	"exam-mex-backend/internal/api"
	"exam-mex-backend/internal/client"
	"exam-mex-backend/internal/config"
	"exam-mex-backend/internal/ctxlog"
	"exam-mex-backend/internal/router"
	"exam-mex-backend/internal/service"
)

func main() {
	cfg, found, err := config.Load()
	if err != nil {
		slog.Error("failed to read config file", "error", err)
		os.Exit(1)
	}

	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(logger)
	if !found {
		logger.Warn("config.yaml not found, using defaults and environment variables")
	}
	if cfg.Mastering.ShuffleSecret == "" {
		logger.Warn("mastering.shuffle_secret is not set")
	}

	masteringClient := client.NewMasteringClient(cfg.Mastering.BaseURL, cfg.Mastering.Timeout, cfg.Mastering.DumpRequests)
	masteringService := service.NewMasteringService(masteringClient, cfg.Mastering.ShuffleSecret)
	examService := service.NewExamService(masteringService, cfg.Batch.MaxConcurrency)

	examHandler := api.NewExamHandler(examService)

	r := router.SetupRouter(examHandler, cfg.CORS.AllowedOrigins, logger)

	logger.Info("server starting", "addr", cfg.Server.Port, "mastering", cfg.Mastering.BaseURL)
	if err := r.Run(cfg.Server.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
