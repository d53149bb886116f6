package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/models"
	"help-from-founder-go/internal/policy"
)

// maxSlugSuffix bounds the -1, -2, ... search before falling back to a random suffix.
const maxSlugSuffix = 50

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// MakeSlug derives the URL slug of a project name.
func MakeSlug(name string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "project"
	}
	return s
}

type projectService struct {
	projectRepo db.ProjectRepository
}

// NewProjectService creates a new ProjectService instance.
func NewProjectService(projectRepo db.ProjectRepository) ProjectService {
	return &projectService{projectRepo: projectRepo}
}

// uniqueSlug returns base, or base-N for the smallest free N. A slug already
// held by selfID counts as free.
func (s *projectService) uniqueSlug(ctx context.Context, base, selfID string) (string, error) {
	for i := 0; i <= maxSlugSuffix; i++ {
		candidate := base
		if i > 0 {
			candidate = base + "-" + strconv.Itoa(i)
		}
		existing, err := s.projectRepo.GetBySlug(ctx, candidate)
		if errors.Is(err, db.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug '%s': %w", candidate, err)
		}
		if existing.ID == selfID {
			return candidate, nil
		}
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func (s *projectService) CreateProject(ctx context.Context, actor models.Identity, req models.CreateProjectRequest) (*models.Project, error) {
	if !policy.CanCreateProject(actor, actor.UserID) {
		return nil, fmt.Errorf("%w: sign-in required to create a project", ErrForbidden)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}

	slug, err := s.uniqueSlug(ctx, MakeSlug(name), "")
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     actor.UserID,
		Website:     req.Website,
		LogoURL:     req.LogoURL,
		Social:      req.Social,
	}
	id, err := s.projectRepo.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to create project in repository: %w", err)
	}
	project.ID = id
	return project, nil
}

func (s *projectService) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	project, err := s.projectRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: slug '%s'", ErrProjectNotFound, slug)
		}
		return nil, fmt.Errorf("failed to get project by slug '%s': %w", slug, err)
	}
	return project, nil
}

func (s *projectService) GetProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	return getProject(ctx, s.projectRepo, projectID)
}

func (s *projectService) ListProjectsByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: ownerId is required", ErrInvalidInput)
	}
	projects, err := s.projectRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for owner '%s': %w", ownerID, err)
	}
	return projects, nil
}

// UpdateProject applies the sent fields. Renaming recomputes the slug.
func (s *projectService) UpdateProject(ctx context.Context, actor models.Identity, projectID string, req models.UpdateProjectRequest) (*models.Project, error) {
	project, err := getProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}

	var fields []string
	if req.Name != nil {
		fields = append(fields, "name", "slug")
	}
	if req.Description != nil {
		fields = append(fields, "description")
	}
	if req.Website != nil {
		fields = append(fields, "website")
	}
	if req.LogoURL != nil {
		fields = append(fields, "logoUrl")
	}
	if req.Social != nil {
		fields = append(fields, "social")
	}
	if len(fields) == 0 {
		return project, nil
	}
	if !policy.CanUpdateProject(actor, project, fields) {
		return nil, fmt.Errorf("%w: only the project owner can edit project '%s'", ErrForbidden, projectID)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
		}
		if name != project.Name {
			slug, err := s.uniqueSlug(ctx, MakeSlug(name), project.ID)
			if err != nil {
				return nil, err
			}
			project.Name, project.Slug = name, slug
		}
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Website != nil {
		project.Website = *req.Website
	}
	if req.LogoURL != nil {
		project.LogoURL = *req.LogoURL
	}
	if req.Social != nil {
		project.Social = *req.Social
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project '%s': %w", projectID, err)
	}
	return getProject(ctx, s.projectRepo, projectID)
}

func getProject(ctx context.Context, repo db.ProjectRepository, projectID string) (*models.Project, error) {
	project, err := repo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: project with ID '%s'", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to get project '%s': %w", projectID, err)
	}
	return project, nil
}
