package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/core"
)

// respondError maps service errors to HTTP status codes. Unexpected errors
// are logged and reported as 500 without their details.
func respondError(c *gin.Context, logger *zap.Logger, action string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()})
	case errors.Is(err, core.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: fmt.Sprintf("You do not have permission to %s", action)})
	case errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrProjectNotFound),
		errors.Is(err, core.ErrThreadNotFound),
		errors.Is(err, core.ErrResponseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found", Details: err.Error()})
	default:
		logger.Error("Request failed",
			zap.String("action", action),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("Failed to %s", action)})
	}
}

// bindJSON decodes and validates the request body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return false
	}
	return true
}
