package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/core"
	"help-from-founder-go/internal/middleware"
	"help-from-founder-go/internal/models"
)

// TokenRevoker revokes the refresh tokens of a user. *auth.Client satisfies it.
type TokenRevoker interface {
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	userService   core.UserService
	threadService core.ThreadService
	revoker       TokenRevoker
	logger        *zap.Logger
}

// NewUserHandler creates a new UserHandler. A nil revoker makes sign-out a
// no-op on the server side.
func NewUserHandler(us core.UserService, ts core.ThreadService, revoker TokenRevoker, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, threadService: ts, revoker: revoker, logger: logger}
}

// actor returns the identity of the caller, answering 500 if it cannot be
// resolved.
func actor(c *gin.Context, logger *zap.Logger) (models.Identity, bool) {
	id, err := middleware.IdentityOf(c)
	if err != nil {
		logger.Error("Failed to resolve caller identity", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to resolve caller identity"})
		return models.Identity{}, false
	}
	return id, true
}

// Initialize handles POST /api/v1/users/initialize. It is called by the client
// after every sign-in. On the first one the profile is created and the
// contributions this device made anonymously are re-attributed to the user.
func (h *UserHandler) Initialize(c *gin.Context) {
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, created, err := h.userService.GetOrCreate(ctx, caller, c.GetString(middleware.ContextUserPhotoURL))
	if err != nil {
		respondError(c, h.logger, "initialize the user profile", err)
		return
	}

	resp := InitializeResponse{User: user, Created: created}
	if created {
		anon, found, err := middleware.AnonymousIdentityOf(c)
		if err != nil {
			h.logger.Warn("Failed to read anonymous identity for transfer", zap.String("userId", user.ID), zap.Error(err))
		}
		if found {
			moved, err := h.threadService.TransferAnonymousUserData(ctx, anon.ID, user.ID)
			if err != nil {
				// The profile exists; a failed transfer must not fail sign-in.
				h.logger.Error("Anonymous data transfer failed", zap.String("userId", user.ID), zap.Error(err))
			}
			resp.Transferred = moved
		}
		c.JSON(http.StatusCreated, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMe handles GET /api/v1/users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.logger, "retrieve the user profile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, h.logger, "update the user profile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SignOut handles POST /api/v1/users/signout by revoking the refresh tokens
// of the caller. The client discards its ID token itself.
func (h *UserHandler) SignOut(c *gin.Context) {
	uid := c.GetString(middleware.ContextUserID)
	if h.revoker != nil {
		if err := h.revoker.RevokeRefreshTokens(c.Request.Context(), uid); err != nil {
			respondError(c, h.logger, "sign out", err)
			return
		}
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}
