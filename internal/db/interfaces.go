package db

import (
	"context"
	"errors"
	"time"

	"help-from-founder-go/internal/models"
)

// ErrNotFound is returned by every repository when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned when a create collides with an existing document.
var ErrAlreadyExists = errors.New("document already exists")

// UserRepository defines storage operations on the users collection.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateLastSeen(ctx context.Context, userID string, at time.Time) error
}

// ProjectRepository defines storage operations on the projects collection.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) (string, error) // Returns new project ID
	GetByID(ctx context.Context, projectID string) (*models.Project, error)
	GetBySlug(ctx context.Context, slug string) (*models.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error)
	ListIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, project *models.Project) error
	// IncrementCounters atomically adds the deltas to totalIssues and closedIssues.
	IncrementCounters(ctx context.Context, projectID string, totalDelta, closedDelta int) error
	// SetCounters overwrites both counters. Used by reconciliation only.
	SetCounters(ctx context.Context, projectID string, total, closed int) error
}

// ThreadRepository defines storage operations on the threads collection.
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) (string, error)
	GetByID(ctx context.Context, threadID string) (*models.Thread, error)
	// ListByProject returns matching threads newest-first.
	ListByProject(ctx context.Context, projectID string, query models.ThreadQuery) ([]*models.Thread, error)
	UpdateStatus(ctx context.Context, threadID string, update models.ThreadStatusUpdate) error
	Delete(ctx context.Context, threadID string) error
	IncrementResponseCount(ctx context.Context, threadID string, delta int) error
	SetResponseCount(ctx context.Context, threadID string, count int) error
	// CountByProject counts threads of a project; an empty status counts all.
	CountByProject(ctx context.Context, projectID string, status models.ThreadStatus) (int, error)
}

// ResponseRepository defines storage operations on the responses collection.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.Response) (string, error)
	GetByID(ctx context.Context, responseID string) (*models.Response, error)
	// ListByThread returns the responses of a thread oldest-first.
	ListByThread(ctx context.Context, threadID string) ([]*models.Response, error)
	Delete(ctx context.Context, responseID string) error
	CountByThread(ctx context.Context, threadID string) (int, error)
}

// TransferRepository re-attributes anonymous contributions to a user.
type TransferRepository interface {
	// TransferAnonymousData sets authorId=userID and clears anonymousId on every
	// thread and response carrying anonymousID, in one atomic write. It
	// returns the number of documents rewritten.
	TransferAnonymousData(ctx context.Context, anonymousID, userID string) (int, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Users     UserRepository
	Projects  ProjectRepository
	Threads   ThreadRepository
	Responses ResponseRepository
	Transfers TransferRepository
}
