package main

import (
	"log"

	"go.uber.org/zap"

	"help-from-founder-go/internal/config"
	"help-from-founder-go/internal/httpserver"
	"help-from-founder-go/internal/notify"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load notifier configuration: %v", err)
	}

	zapLogger, err := httpserver.NewLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Without a provider the service still starts and answers every send
	// request with 500, so a misconfiguration is visible to callers.
	var dispatcher *notify.Dispatcher
	sender, err := notify.NewSender(cfg)
	switch {
	case notify.IsConfigError(err):
		zapLogger.Error("No email provider configured: set RESEND_API_KEY or SMTP_HOST")
	case err != nil:
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create email sender", zap.Error(err))
	default:
		renderer := notify.Renderer{AppURL: cfg.AppURL}
		dispatcher = notify.NewDispatcher(sender, renderer, cfg.SendConcurrency, zapLogger)
	}

	router := httpserver.NewEngine(cfg.GinMode, cfg.CORSAllowedOrigins, zapLogger)
	handler := notify.NewHandler(dispatcher, zapLogger)
	notify.RegisterRoutes(router, handler, cfg.NotificationLegacyPath)
	router.GET("/health", handler.Health)

	if err := httpserver.Run(cfg.Port, router, zapLogger, nil); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
	}
}
