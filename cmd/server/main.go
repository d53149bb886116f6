package main

import (
	"context"
	"errors"
	"log"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"help-from-founder-go/internal/anonid"
	"help-from-founder-go/internal/api"
	"help-from-founder-go/internal/config"
	"help-from-founder-go/internal/core"
	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/httpserver"
	"help-from-founder-go/internal/middleware"
	"help-from-founder-go/internal/presence"
)

// anonymousIdentityTTL keeps an unused device identity for a year, matching
// the lifetime of the device cookie.
const anonymousIdentityTTL = 365 * 24 * time.Hour

// rejectAllVerifier stands in for Firebase Auth when the server runs on the
// in-memory datastore without a Firebase project. Only anonymous flows work.
type rejectAllVerifier struct{}

func (rejectAllVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return nil, errors.New("no identity provider configured")
}

func main() {
	appConfig, err := config.LoadServer()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := httpserver.NewLogger(appConfig.GinMode)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Datastore and identity provider ---
	var (
		store    *db.Store
		verifier middleware.TokenVerifier = rejectAllVerifier{}
		revoker  api.TokenRevoker
	)
	if appConfig.Datastore == config.DatastoreFirestore || appConfig.FirebaseProjectID != "" {
		initCtx, cancelInit := context.WithTimeout(rootCtx, 15*time.Second)
		err := db.InitFirestore(initCtx, appConfig, zapLogger)
		cancelInit()
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
		}
		authClient := db.GetFirebaseAuthClient()
		verifier, revoker = authClient, authClient
		defer db.CloseFirestore()
	} else {
		zapLogger.Warn("No Firebase project configured; sign-in is disabled")
	}

	switch appConfig.Datastore {
	case config.DatastoreFirestore:
		store = db.NewFirestoreStore(db.GetFirestoreClient())
	case config.DatastoreMemory:
		zapLogger.Warn("Using the in-memory datastore; data is lost on restart")
		store = db.NewMemoryStore().Store()
	}

	// --- Redis: presence and anonymous identities ---
	anonStorage := anonid.NewMemoryStorageFactory()
	var hub *presence.Hub
	if appConfig.RedisURL != "" {
		opts, err := redis.ParseURL(appConfig.RedisURL)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Invalid REDIS_URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		pingCtx, cancelPing := context.WithTimeout(rootCtx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			zapLogger.Warn("Redis is not reachable yet", zap.Error(err))
		}
		cancelPing()

		anonStorage = anonid.NewRedisStorageFactory(redisClient, anonymousIdentityTTL)
		hub = presence.NewHub(
			presence.NewRedisTracker(redisClient, appConfig.PresenceTTL),
			store.Users,
			appConfig.PresenceTTL,
			config.AllowedOrigins(appConfig.CORSAllowedOrigins),
			zapLogger,
		)
		go hub.Run(rootCtx)
	} else {
		zapLogger.Warn("REDIS_URL is not set; presence is disabled and anonymous identities are kept in memory")
	}

	// --- Services ---
	var notifier core.Notifier
	if appConfig.NotifierURL != "" {
		notifier = core.NewHTTPNotifier(appConfig.NotifierURL, appConfig.NotifierTimeout, zapLogger)
	} else {
		zapLogger.Warn("NOTIFIER_URL is not set; email notifications are disabled")
	}

	userService := core.NewUserService(store.Users)
	projectService := core.NewProjectService(store.Projects)
	threadService := core.NewThreadService(store, notifier, zapLogger)
	reconcileService := core.NewReconcileService(store, zapLogger)

	if appConfig.ReconcileInterval > 0 {
		go core.RunReconciler(rootCtx, reconcileService, appConfig.ReconcileInterval, zapLogger)
		zapLogger.Info("Counter reconciler started", zap.Duration("interval", appConfig.ReconcileInterval))
	}

	// --- HTTP ---
	router := httpserver.NewEngine(appConfig.GinMode, appConfig.CORSAllowedOrigins, zapLogger)
	router.Use(middleware.AnonymousIdentity(anonStorage, httpserver.IsRelease(appConfig.GinMode)))

	deps := api.Dependencies{
		Logger:     zapLogger,
		Verifier:   verifier,
		Revoker:    revoker,
		Users:      userService,
		Projects:   projectService,
		Threads:    threadService,
		Reconciler: reconcileService,
	}
	if hub != nil {
		deps.Presence = hub
	}
	api.SetupRoutes(router, deps)

	if err := httpserver.Run(appConfig.Port, router, zapLogger, stop); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
	}
}
