package core

import (
	"context"
	"errors"

	"help-from-founder-go/internal/models"
)

// Errors returned by the services. Handlers map them to HTTP statuses.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrThreadNotFound   = errors.New("thread not found")
	ErrResponseNotFound = errors.New("response not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
)

// UserService defines the interface for user-profile operations.
type UserService interface {
	// GetOrCreate retrieves the profile of actor, creating it on first sign-in.
	// The boolean reports whether the profile was created.
	GetOrCreate(ctx context.Context, actor models.Identity, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, actor models.Identity, req models.UpdateUserRequest) (*models.User, error)
}

// ProjectService defines the interface for project operations.
type ProjectService interface {
	CreateProject(ctx context.Context, actor models.Identity, req models.CreateProjectRequest) (*models.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
	GetProjectByID(ctx context.Context, projectID string) (*models.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]*models.Project, error)
	UpdateProject(ctx context.Context, actor models.Identity, projectID string, req models.UpdateProjectRequest) (*models.Project, error)
}

// ThreadService manages the lifecycle of threads and responses and keeps the
// denormalized counters in step with each mutation.
type ThreadService interface {
	CreateThread(ctx context.Context, actor models.Identity, projectID string, req models.CreateThreadRequest) (*models.Thread, error)
	GetThread(ctx context.Context, threadID string) (*models.Thread, []*models.Response, error)
	ListThreads(ctx context.Context, projectID string, query models.ThreadQuery) ([]*models.Thread, error)
	UpdateThreadStatus(ctx context.Context, actor models.Identity, threadID string, req models.UpdateThreadStatusRequest) (*models.Thread, error)
	DeleteThread(ctx context.Context, actor models.Identity, threadID string) error

	CreateResponse(ctx context.Context, actor models.Identity, threadID string, req models.CreateResponseRequest) (*models.Response, error)
	DeleteResponse(ctx context.Context, actor models.Identity, responseID string) error

	// GetThreadParticipants returns up to five registered participants of a
	// thread, newest-first, excluding exclude.
	GetThreadParticipants(ctx context.Context, threadID string, exclude models.Identity) ([]models.NotificationRecipient, error)
	// TransferAnonymousUserData re-attributes the anonymous contributions of
	// anonymousID to userID and returns the number of documents moved.
	TransferAnonymousUserData(ctx context.Context, anonymousID, userID string) (int, error)
}

// ReconcileService recomputes denormalized counters from source documents.
type ReconcileService interface {
	ReconcileProject(ctx context.Context, actor models.Identity, projectID string) (*ReconcileReport, error)
	ReconcileAll(ctx context.Context) (int, error)
}

// Notifier delivers notification payloads to the dispatcher service.
type Notifier interface {
	NotifyNewIssue(ctx context.Context, n models.NewIssueNotification) error
	NotifyNewResponse(ctx context.Context, n models.NewResponseNotification) error
}
