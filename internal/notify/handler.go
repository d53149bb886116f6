package notify

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBodyBytes bounds a notification request body.
const maxBodyBytes = 1 << 20

// SendResponse is the body of every send-email answer.
type SendResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Sent    int       `json:"sent"`
	Failed  int       `json:"failed"`
	Errors  []Failure `json:"errors"`
}

// Handler serves the dispatcher HTTP API.
type Handler struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a Handler. A nil dispatcher means no email provider is
// configured; every send request then fails with 500.
func NewHandler(dispatcher *Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, logger: logger}
}

// RegisterRoutes mounts the health check, the send endpoint and, when set,
// the legacy send path.
func RegisterRoutes(router gin.IRoutes, h *Handler, legacyPath string) {
	router.GET("/", h.Health)
	router.POST("/api/send-email", h.SendEmail)
	if legacyPath != "" && legacyPath != "/api/send-email" {
		router.POST(legacyPath, h.SendEmail)
	}
}

// Health handles GET /.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Help From Founder notification service is running"})
}

// SendEmail handles POST /api/send-email.
func (h *Handler) SendEmail(c *gin.Context) {
	if h.dispatcher == nil {
		h.logger.Error("Send requested but no email provider is configured")
		c.JSON(http.StatusInternalServerError, SendResponse{
			Message: ErrNotConfigured.Error(),
			Errors:  []Failure{},
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, SendResponse{Message: "failed to read request body", Errors: []Failure{}})
		return
	}

	n, err := ParsePayload(body)
	if err != nil {
		h.logger.Info("Rejected notification payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, SendResponse{Message: err.Error(), Errors: []Failure{}})
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), n)
	if err != nil {
		h.logger.Error("Notification dispatch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, SendResponse{Message: "failed to render notification", Errors: []Failure{}})
		return
	}

	status := res.StatusCode()
	failures := res.Failures
	if failures == nil {
		failures = []Failure{}
	}
	c.JSON(status, SendResponse{
		Success: status != http.StatusInternalServerError,
		Message: res.Summary(),
		Sent:    res.Sent,
		Failed:  len(res.Failures),
		Errors:  failures,
	})
}

// IsConfigError reports whether err means the service lacks provider credentials.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
