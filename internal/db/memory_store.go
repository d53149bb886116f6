package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"help-from-founder-go/internal/models"
)

// MemoryStore is an in-process backend with the same semantics as the
// Firestore repositories. It backs tests and DATASTORE=memory.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.User
	projects  map[string]models.Project
	threads   map[string]models.Thread
	responses map[string]models.Response
	now       func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]models.User),
		projects:  make(map[string]models.Project),
		threads:   make(map[string]models.Thread),
		responses: make(map[string]models.Response),
		now:       time.Now,
	}
}

// Store returns the repositories backed by m.
func (m *MemoryStore) Store() *Store {
	return &Store{
		Users:     memoryUsers{m},
		Projects:  memoryProjects{m},
		Threads:   memoryThreads{m},
		Responses: memoryResponses{m},
		Transfers: memoryTransfers{m},
	}
}

func newID() string {
	return uuid.NewString()
}

func stamp(t *time.Time, now time.Time) {
	if t.IsZero() {
		*t = now
	}
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	return &u, nil
}

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; ok {
		return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, ErrAlreadyExists)
	}
	now := r.m.now()
	stamp(&user.CreatedAt, now)
	stamp(&user.UpdatedAt, now)
	r.m.users[user.ID] = *user
	return nil
}

func (r memoryUsers) Update(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", user.ID, ErrNotFound)
	}
	cur.DisplayName = user.DisplayName
	cur.PhotoURL = user.PhotoURL
	cur.Website = user.Website
	cur.Social = user.Social
	cur.UpdatedAt = r.m.now()
	r.m.users[user.ID] = cur
	return nil
}

func (r memoryUsers) UpdateLastSeen(_ context.Context, userID string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	cur.LastSeen = &at
	r.m.users[userID] = cur
	return nil
}

type memoryProjects struct{ m *MemoryStore }

func (r memoryProjects) Create(_ context.Context, project *models.Project) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	project.ID = newID()
	now := r.m.now()
	stamp(&project.CreatedAt, now)
	stamp(&project.UpdatedAt, now)
	r.m.projects[project.ID] = *project
	return project.ID, nil
}

func (r memoryProjects) GetByID(_ context.Context, projectID string) (*models.Project, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project with ID '%s' not found: %w", projectID, ErrNotFound)
	}
	return &p, nil
}

func (r memoryProjects) GetBySlug(_ context.Context, slug string) (*models.Project, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, p := range r.m.projects {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("project with slug '%s' not found: %w", slug, ErrNotFound)
}

func (r memoryProjects) ListByOwner(_ context.Context, ownerID string) ([]*models.Project, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*models.Project
	for _, p := range r.m.projects {
		if p.OwnerID == ownerID {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memoryProjects) ListIDs(_ context.Context) ([]string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	ids := make([]string, 0, len(r.m.projects))
	for id := range r.m.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r memoryProjects) Update(_ context.Context, project *models.Project) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.projects[project.ID]
	if !ok {
		return fmt.Errorf("project with ID '%s' not found: %w", project.ID, ErrNotFound)
	}
	cur.Name = project.Name
	cur.Slug = project.Slug
	cur.Description = project.Description
	cur.Website = project.Website
	cur.LogoURL = project.LogoURL
	cur.Social = project.Social
	cur.UpdatedAt = r.m.now()
	r.m.projects[project.ID] = cur
	return nil
}

func (r memoryProjects) IncrementCounters(_ context.Context, projectID string, totalDelta, closedDelta int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.projects[projectID]
	if !ok {
		return fmt.Errorf("project with ID '%s' not found: %w", projectID, ErrNotFound)
	}
	cur.TotalIssues += totalDelta
	cur.ClosedIssues += closedDelta
	cur.UpdatedAt = r.m.now()
	r.m.projects[projectID] = cur
	return nil
}

func (r memoryProjects) SetCounters(_ context.Context, projectID string, total, closed int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.projects[projectID]
	if !ok {
		return fmt.Errorf("project with ID '%s' not found: %w", projectID, ErrNotFound)
	}
	cur.TotalIssues = total
	cur.ClosedIssues = closed
	r.m.projects[projectID] = cur
	return nil
}

type memoryThreads struct{ m *MemoryStore }

func (r memoryThreads) Create(_ context.Context, thread *models.Thread) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	thread.ID = newID()
	now := r.m.now()
	stamp(&thread.CreatedAt, now)
	stamp(&thread.UpdatedAt, now)
	r.m.threads[thread.ID] = *thread
	return thread.ID, nil
}

func (r memoryThreads) GetByID(_ context.Context, threadID string) (*models.Thread, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread with ID '%s' not found: %w", threadID, ErrNotFound)
	}
	t.Normalize()
	return &t, nil
}

func (r memoryThreads) ListByProject(_ context.Context, projectID string, q models.ThreadQuery) ([]*models.Thread, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*models.Thread
	for _, t := range r.m.threads {
		if t.ProjectID != projectID {
			continue
		}
		t.Normalize()
		if q.Tag != "" && t.Tag != q.Tag {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		out = append(out, &t)
	}
	return paginateThreads(out, q), nil
}

func (r memoryThreads) UpdateStatus(_ context.Context, threadID string, u models.ThreadStatusUpdate) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.threads[threadID]
	if !ok {
		return fmt.Errorf("thread with ID '%s' not found: %w", threadID, ErrNotFound)
	}
	cur.Status = u.Status
	cur.ClosingReason = u.ClosingReason
	cur.ClosingNote = u.ClosingNote
	cur.ClosedBy = u.ClosedBy
	cur.ClosedAt = u.ClosedAt
	if u.ClosedAt == nil {
		cur.ClosingReason, cur.ClosingNote, cur.ClosedBy = "", "", ""
	}
	cur.UpdatedAt = r.m.now()
	r.m.threads[threadID] = cur
	return nil
}

func (r memoryThreads) Delete(_ context.Context, threadID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.threads, threadID)
	return nil
}

func (r memoryThreads) IncrementResponseCount(_ context.Context, threadID string, delta int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.threads[threadID]
	if !ok {
		return fmt.Errorf("thread with ID '%s' not found: %w", threadID, ErrNotFound)
	}
	cur.ResponseCount += delta
	cur.UpdatedAt = r.m.now()
	r.m.threads[threadID] = cur
	return nil
}

func (r memoryThreads) SetResponseCount(_ context.Context, threadID string, count int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.threads[threadID]
	if !ok {
		return fmt.Errorf("thread with ID '%s' not found: %w", threadID, ErrNotFound)
	}
	cur.ResponseCount = count
	r.m.threads[threadID] = cur
	return nil
}

func (r memoryThreads) CountByProject(_ context.Context, projectID string, status models.ThreadStatus) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, t := range r.m.threads {
		if t.ProjectID != projectID {
			continue
		}
		t.Normalize()
		if status == "" || t.Status == status {
			n++
		}
	}
	return n, nil
}

type memoryResponses struct{ m *MemoryStore }

func (r memoryResponses) Create(_ context.Context, response *models.Response) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	response.ID = newID()
	stamp(&response.CreatedAt, r.m.now())
	r.m.responses[response.ID] = *response
	return response.ID, nil
}

func (r memoryResponses) GetByID(_ context.Context, responseID string) (*models.Response, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	resp, ok := r.m.responses[responseID]
	if !ok {
		return nil, fmt.Errorf("response with ID '%s' not found: %w", responseID, ErrNotFound)
	}
	return &resp, nil
}

func (r memoryResponses) ListByThread(_ context.Context, threadID string) ([]*models.Response, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*models.Response
	for _, resp := range r.m.responses {
		if resp.ThreadID == threadID {
			out = append(out, &resp)
		}
	}
	sortResponses(out)
	return out, nil
}

func (r memoryResponses) Delete(_ context.Context, responseID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.responses, responseID)
	return nil
}

func (r memoryResponses) CountByThread(_ context.Context, threadID string) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, resp := range r.m.responses {
		if resp.ThreadID == threadID {
			n++
		}
	}
	return n, nil
}

type memoryTransfers struct{ m *MemoryStore }

func (r memoryTransfers) TransferAnonymousData(_ context.Context, anonymousID, userID string) (int, error) {
	if anonymousID == "" || userID == "" {
		return 0, nil
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	moved := 0
	for id, t := range r.m.threads {
		if t.AnonymousID == anonymousID {
			t.AuthorID, t.AnonymousID = userID, ""
			r.m.threads[id] = t
			moved++
		}
	}
	for id, resp := range r.m.responses {
		if resp.AnonymousID == anonymousID {
			resp.AuthorID, resp.AnonymousID = userID, ""
			r.m.responses[id] = resp
			moved++
		}
	}
	return moved, nil
}

// PutThread stores a thread verbatim, bypassing counters. Useful for seeding
// legacy documents.
func (m *MemoryStore) PutThread(thread models.Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if thread.ID == "" {
		thread.ID = newID()
	}
	m.threads[thread.ID] = thread
}
