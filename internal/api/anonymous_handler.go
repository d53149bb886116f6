package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/middleware"
)

// AnonymousHandler reports the pseudonymous identity of the requesting device.
type AnonymousHandler struct {
	logger *zap.Logger
}

// NewAnonymousHandler creates a new AnonymousHandler.
func NewAnonymousHandler(logger *zap.Logger) *AnonymousHandler {
	return &AnonymousHandler{logger: logger}
}

// Identity handles GET /api/v1/anonymous/identity, minting the identity on
// first use.
func (h *AnonymousHandler) Identity(c *gin.Context) {
	ident, ok, err := middleware.AnonymousIdentityOf(c)
	if err != nil {
		respondError(c, h.logger, "read the anonymous identity", err)
		return
	}
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Anonymous identity is not configured"})
		return
	}
	c.JSON(http.StatusOK, ident)
}
