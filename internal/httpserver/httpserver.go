// Package httpserver holds the process plumbing shared by the three services:
// logger construction, the Gin engine with its global middleware, and a
// server loop with graceful shutdown.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/config"
	"help-from-founder-go/internal/middleware"
)

// ShutdownTimeout bounds how long in-flight requests may take to drain.
const ShutdownTimeout = 10 * time.Second

// IsRelease reports whether ginMode selects release mode.
func IsRelease(ginMode string) bool {
	return strings.EqualFold(ginMode, gin.ReleaseMode)
}

// NewLogger returns a production logger in release mode and a development
// logger otherwise.
func NewLogger(ginMode string) (*zap.Logger, error) {
	if IsRelease(ginMode) {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewEngine sets the Gin mode and returns an engine with request logging,
// panic recovery and CORS applied, in that order.
func NewEngine(ginMode, corsOrigins string, logger *zap.Logger) *gin.Engine {
	if IsRelease(ginMode) {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	origins := config.AllowedOrigins(corsOrigins)
	if len(origins) == 0 {
		logger.Warn("CORS_ALLOWED_ORIGINS is empty; reflecting every origin")
	}
	router.Use(middleware.CORSMiddleware(origins))
	return router
}

// Run serves handler on port until SIGINT or SIGTERM, then shuts down
// gracefully. onShutdown, if non-nil, runs after the listener is closed.
func Run(port string, handler http.Handler, logger *zap.Logger, onShutdown func()) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server...", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(ctx)
	if onShutdown != nil {
		onShutdown()
	}
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exiting gracefully.")
	return nil
}
