package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/models"
)

type recordingNotifier struct {
	mu        sync.Mutex
	issues    []models.NewIssueNotification
	responses []models.NewResponseNotification
}

func (n *recordingNotifier) NotifyNewIssue(_ context.Context, p models.NewIssueNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issues = append(n.issues, p)
	return nil
}

func (n *recordingNotifier) NotifyNewResponse(_ context.Context, p models.NewResponseNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responses = append(n.responses, p)
	return nil
}

var (
	founder = models.Identity{UserID: "owner", DisplayName: "Olive", Email: "owner@x.dev"}
	alice   = models.Identity{UserID: "alice", DisplayName: "Alice", Email: "alice@x.dev"}
	bob     = models.Identity{UserID: "bob", DisplayName: "Bob", Email: "bob@x.dev"}
	visitor = models.Identity{AnonymousID: "12345678", DisplayName: "BraveOtter42"}
)

type fixture struct {
	store    *db.Store
	mem      *db.MemoryStore
	svc      *threadService
	notifier *recordingNotifier
	project  *models.Project
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := db.NewMemoryStore()
	store := mem.Store()
	ctx := context.Background()
	for _, u := range []models.Identity{founder, alice, bob} {
		if err := store.Users.Create(ctx, &models.User{ID: u.UserID, Email: u.Email, DisplayName: u.DisplayName}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	project := &models.Project{Name: "Acme", Slug: "acme", OwnerID: founder.UserID}
	id, err := store.Projects.Create(ctx, project)
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	project.ID = id

	f := &fixture{
		store:    store,
		mem:      mem,
		notifier: &recordingNotifier{},
		project:  project,
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewThreadService(store, f.notifier, zap.NewNop()).(*threadService)
	f.svc.async = func(fn func()) { fn() }
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) reloadProject(t *testing.T) *models.Project {
	t.Helper()
	p, err := f.store.Projects.GetByID(context.Background(), f.project.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	return p
}

func (f *fixture) thread(t *testing.T, actor models.Identity) *models.Thread {
	t.Helper()
	th, err := f.svc.CreateThread(context.Background(), actor, f.project.ID, models.CreateThreadRequest{
		Title: "Login broken", Content: "Cannot sign in", Tag: models.TagBug,
	})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	f.advance(time.Minute)
	return th
}

func (f *fixture) reply(t *testing.T, actor models.Identity, threadID string) *models.Response {
	t.Helper()
	r, err := f.svc.CreateResponse(context.Background(), actor, threadID, models.CreateResponseRequest{Content: "reply from " + actor.Key()})
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	f.advance(time.Minute)
	return r
}
