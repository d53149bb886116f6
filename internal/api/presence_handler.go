package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/middleware"
	"help-from-founder-go/internal/presence"
)

// PresenceHub is the part of *presence.Hub the handlers use.
type PresenceHub interface {
	Status(ctx context.Context, userID string) (presence.Event, error)
	ServeWs(w http.ResponseWriter, r *http.Request, userID string)
}

// PresenceHandler exposes online status over HTTP and WebSocket.
type PresenceHandler struct {
	hub    PresenceHub
	logger *zap.Logger
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(hub PresenceHub, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{hub: hub, logger: logger}
}

// Status handles GET /api/v1/presence/:userId.
func (h *PresenceHandler) Status(c *gin.Context) {
	ev, err := h.hub.Status(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, "read presence", err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// Connect handles GET /api/v1/presence/ws. The caller is marked online for as
// long as the socket stays open.
func (h *PresenceHandler) Connect(c *gin.Context) {
	h.hub.ServeWs(c.Writer, c.Request, c.GetString(middleware.ContextUserID))
}
