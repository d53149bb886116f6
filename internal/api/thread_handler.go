package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/core"
	"help-from-founder-go/internal/models"
)

// ThreadHandler handles API endpoints for threads and their responses.
type ThreadHandler struct {
	threadService core.ThreadService
	logger        *zap.Logger
}

// NewThreadHandler creates a new ThreadHandler.
func NewThreadHandler(ts core.ThreadService, logger *zap.Logger) *ThreadHandler {
	return &ThreadHandler{threadService: ts, logger: logger}
}

// pageSize mirrors the clamping applied by the thread service so the handler
// can tell whether another page may follow.
func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return core.DefaultThreadLimit
	case limit > core.MaxThreadLimit:
		return core.MaxThreadLimit
	}
	return limit
}

// ListThreads handles GET /api/v1/projects/:projectId/threads.
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	query := models.ThreadQuery{
		Status:     models.ThreadStatus(c.Query("status")),
		Tag:        models.ThreadTag(c.Query("tag")),
		StartAfter: c.Query("startAfter"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		query.Limit = limit
	}

	threads, err := h.threadService.ListThreads(c.Request.Context(), c.Param("projectId"), query)
	if err != nil {
		respondError(c, h.logger, "list threads", err)
		return
	}
	resp := ThreadListResponse{Threads: threads}
	if resp.Threads == nil {
		resp.Threads = []*models.Thread{}
	}
	if n := len(threads); n > 0 && n == pageSize(query.Limit) {
		resp.NextCursor = threads[n-1].ID
	}
	c.JSON(http.StatusOK, resp)
}

// CreateThread handles POST /api/v1/projects/:projectId/threads. Signed-in
// and anonymous visitors may both open threads.
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req models.CreateThreadRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	thread, err := h.threadService.CreateThread(c.Request.Context(), caller, c.Param("projectId"), req)
	if err != nil {
		respondError(c, h.logger, "create the thread", err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

// GetThread handles GET /api/v1/threads/:threadId.
func (h *ThreadHandler) GetThread(c *gin.Context) {
	thread, responses, err := h.threadService.GetThread(c.Request.Context(), c.Param("threadId"))
	if err != nil {
		respondError(c, h.logger, "retrieve the thread", err)
		return
	}
	if responses == nil {
		responses = []*models.Response{}
	}
	c.JSON(http.StatusOK, ThreadDetailResponse{Thread: thread, Responses: responses})
}

// UpdateThreadStatus handles PATCH /api/v1/threads/:threadId/status.
func (h *ThreadHandler) UpdateThreadStatus(c *gin.Context) {
	var req models.UpdateThreadStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	thread, err := h.threadService.UpdateThreadStatus(c.Request.Context(), caller, c.Param("threadId"), req)
	if err != nil {
		respondError(c, h.logger, "change the status of this thread", err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// DeleteThread handles DELETE /api/v1/threads/:threadId.
func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	if err := h.threadService.DeleteThread(c.Request.Context(), caller, c.Param("threadId")); err != nil {
		respondError(c, h.logger, "delete this thread", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateResponse handles POST /api/v1/threads/:threadId/responses.
func (h *ThreadHandler) CreateResponse(c *gin.Context) {
	var req models.CreateResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	response, err := h.threadService.CreateResponse(c.Request.Context(), caller, c.Param("threadId"), req)
	if err != nil {
		respondError(c, h.logger, "reply to the thread", err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// DeleteResponse handles DELETE /api/v1/responses/:responseId. The signed-in
// author and the project owner may delete.
func (h *ThreadHandler) DeleteResponse(c *gin.Context) {
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	if err := h.threadService.DeleteResponse(c.Request.Context(), caller, c.Param("responseId")); err != nil {
		respondError(c, h.logger, "delete this response", err)
		return
	}
	c.Status(http.StatusNoContent)
}
