package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"help-from-founder-go/internal/config"
	"help-from-founder-go/internal/httpserver"
	"help-from-founder-go/internal/imagerelay"
)

func main() {
	cfg, err := config.LoadImageRelay()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load image relay configuration: %v", err)
	}

	zapLogger, err := httpserver.NewLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	store, err := imagerelay.NewMinioStore(cfg)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create object store client", zap.Error(err))
	}
	checkCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureBucket(checkCtx); err != nil {
		// Uploads fail until the bucket exists, but serving stays up.
		zapLogger.Warn("Object store bucket check failed", zap.String("bucket", cfg.ObjectStoreBucket), zap.Error(err))
	}
	cancel()

	router := httpserver.NewEngine(cfg.GinMode, cfg.CORSAllowedOrigins, zapLogger)
	handler := imagerelay.NewHandler(store, zapLogger)
	imagerelay.RegisterRoutes(router, handler)
	router.GET("/health", handler.Health)

	if err := httpserver.Run(cfg.Port, router, zapLogger, nil); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
	}
}
