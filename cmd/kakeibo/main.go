package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"kakeibo/internal/cli"
	"kakeibo/internal/extractor"
	apphttp "kakeibo/internal/http"
	"kakeibo/internal/log"
	"kakeibo/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)

	opts := apphttp.Options{
		Addr:     ":" + cfg.Port,
		Store:    result.Backend,
		Sessions: session.NewStore(cfg.MaxSessions, cfg.SessionTTL),
		Logger:   logger,
	}

	if cfg.ScanEnabled() {
		model, err := extractor.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", log.FieldError, err)
			os.Exit(1)
		}
		opts.Extractor = extractor.New(model, logger, extractor.WithTimeout(cfg.ExtractTimeout))
		logger.Info("Receipt scanning enabled", log.FieldModel, cfg.GeminiModel)
	} else {
		logger.Info("Receipt scanning disabled: GEMINI_API_KEY not set")
	}

	srv, err := apphttp.NewServer(opts)
	if err != nil {
		logger.Error("Failed to build server", log.FieldError, err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting kakeibo server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"scan_enabled", cfg.ScanEnabled(),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
