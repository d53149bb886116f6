package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/core"
	"help-from-founder-go/internal/models"
)

// ProjectHandler handles API endpoints related to projects.
type ProjectHandler struct {
	projectService   core.ProjectService
	reconcileService core.ReconcileService
	logger           *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(ps core.ProjectService, rs core.ReconcileService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: ps, reconcileService: rs, logger: logger}
}

// CreateProject handles POST /api/v1/projects. The caller becomes the owner.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	project, err := h.projectService.CreateProject(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, h.logger, "create the project", err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ListProjects handles GET /api/v1/projects?ownerId=.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ownerId query parameter is required"})
		return
	}
	projects, err := h.projectService.ListProjectsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.logger, "list projects", err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject handles GET /api/v1/projects/:projectId. The parameter is
// looked up as a slug first, then as a document id.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ref := c.Param("projectId")
	ctx := c.Request.Context()

	project, err := h.projectService.GetProjectBySlug(ctx, ref)
	if errors.Is(err, core.ErrProjectNotFound) {
		project, err = h.projectService.GetProjectByID(ctx, ref)
	}
	if err != nil {
		respondError(c, h.logger, "retrieve the project", err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject handles PUT /api/v1/projects/:projectId.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req models.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	project, err := h.projectService.UpdateProject(c.Request.Context(), caller, c.Param("projectId"), req)
	if err != nil {
		respondError(c, h.logger, "update this project", err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Reconcile handles POST /api/v1/projects/:projectId/reconcile, recomputing
// the project's counters from its threads and responses.
func (h *ProjectHandler) Reconcile(c *gin.Context) {
	caller, ok := actor(c, h.logger)
	if !ok {
		return
	}
	report, err := h.reconcileService.ReconcileProject(c.Request.Context(), caller, c.Param("projectId"))
	if err != nil {
		respondError(c, h.logger, "reconcile this project", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
