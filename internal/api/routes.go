package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/core"
	"help-from-founder-go/internal/middleware"
)

// Dependencies are the services and collaborators the routes are wired to.
// Presence and Revoker are optional.
type Dependencies struct {
	Logger     *zap.Logger
	Verifier   middleware.TokenVerifier
	Revoker    TokenRevoker
	Users      core.UserService
	Projects   core.ProjectService
	Threads    core.ThreadService
	Reconciler core.ReconcileService
	Presence   PresenceHub
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (logging, recovery, CORS, anonymous identity) is expected
// to be applied to router before this is called.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	authMW := middleware.NewAuthMiddleware(deps.Verifier, logger)

	userHandler := NewUserHandler(deps.Users, deps.Threads, deps.Revoker, logger)
	projectHandler := NewProjectHandler(deps.Projects, deps.Reconciler, logger)
	threadHandler := NewThreadHandler(deps.Threads, logger)
	anonymousHandler := NewAnonymousHandler(logger)

	apiV1 := router.Group("/api/v1")
	{
		users := apiV1.Group("/users", authMW.RequireAuth())
		{
			users.POST("/initialize", userHandler.Initialize)
			users.GET("/me", userHandler.GetMe)
			users.PUT("/me", userHandler.UpdateMe)
			users.POST("/signout", userHandler.SignOut)
		}

		projects := apiV1.Group("/projects")
		{
			projects.POST("", authMW.RequireAuth(), projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:projectId", projectHandler.GetProject)
			projects.PUT("/:projectId", authMW.RequireAuth(), projectHandler.UpdateProject)
			projects.POST("/:projectId/reconcile", authMW.RequireAuth(), projectHandler.Reconcile)
			projects.GET("/:projectId/threads", threadHandler.ListThreads)
			projects.POST("/:projectId/threads", authMW.OptionalAuth(), threadHandler.CreateThread)
		}

		threads := apiV1.Group("/threads")
		{
			threads.GET("/:threadId", threadHandler.GetThread)
			threads.PATCH("/:threadId/status", authMW.RequireAuth(), threadHandler.UpdateThreadStatus)
			threads.DELETE("/:threadId", authMW.RequireAuth(), threadHandler.DeleteThread)
			threads.POST("/:threadId/responses", authMW.OptionalAuth(), threadHandler.CreateResponse)
		}

		apiV1.DELETE("/responses/:responseId", authMW.RequireAuth(), threadHandler.DeleteResponse)
		apiV1.GET("/anonymous/identity", anonymousHandler.Identity)

		if deps.Presence != nil {
			presenceHandler := NewPresenceHandler(deps.Presence, logger)
			apiV1.GET("/presence/ws", authMW.RequireAuth(), presenceHandler.Connect)
			apiV1.GET("/presence/:userId", presenceHandler.Status)
		} else {
			logger.Info("Presence routes disabled: no Redis configured")
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Help From Founder API is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
