package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"help-from-founder-go/internal/anonid"
	"help-from-founder-go/internal/core"
	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/middleware"
	"help-from-founder-go/internal/models"
	"help-from-founder-go/internal/presence"
)

type fakeAuth struct {
	tokens  map[string]*auth.Token
	revoked []string
}

func (f *fakeAuth) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token is invalid")
}

func (f *fakeAuth) RevokeRefreshTokens(_ context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return nil
}

type fakeHub struct{ events map[string]presence.Event }

func (f *fakeHub) Status(_ context.Context, userID string) (presence.Event, error) {
	if ev, ok := f.events[userID]; ok {
		return ev, nil
	}
	return presence.Event{UserID: userID}, nil
}

func (f *fakeHub) ServeWs(w http.ResponseWriter, _ *http.Request, userID string) {
	w.WriteHeader(http.StatusSwitchingProtocols)
	w.Write([]byte(userID))
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *db.Store
	auth   *fakeAuth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	store := db.NewMemoryStore().Store()
	fa := &fakeAuth{tokens: map[string]*auth.Token{
		"founder-token": {UID: "owner", Claims: map[string]interface{}{"email": "owner@x.dev", "name": "Olive"}},
		"alice-token":   {UID: "alice", Claims: map[string]interface{}{"email": "alice@x.dev", "name": "Alice"}},
	}}
	lastSeen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	router := gin.New()
	router.Use(middleware.AnonymousIdentity(anonid.NewMemoryStorageFactory(), false))
	SetupRoutes(router, Dependencies{
		Logger:     logger,
		Verifier:   fa,
		Revoker:    fa,
		Users:      core.NewUserService(store.Users),
		Projects:   core.NewProjectService(store.Projects),
		Threads:    core.NewThreadService(store, nil, logger),
		Reconciler: core.NewReconcileService(store, logger),
		Presence: &fakeHub{events: map[string]presence.Event{
			"owner": {UserID: "owner", Online: false, LastSeen: &lastSeen},
		}},
	})
	return &testServer{t: t, router: router, store: store, auth: fa}
}

type call struct {
	method string
	path   string
	token  string
	cookie *http.Cookie
	header map[string]string
	body   any
}

func (s *testServer) do(c call) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&body).Encode(c.body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func (s *testServer) createProject(name string) *models.Project {
	s.t.Helper()
	rec := s.do(call{method: http.MethodPost, path: "/api/v1/projects", token: "founder-token", body: models.CreateProjectRequest{Name: name}})
	expectStatus(s.t, rec, http.StatusCreated)
	return ptr(decode[models.Project](s.t, rec))
}

func ptr[T any](v T) *T { return &v }

func deviceCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.DeviceCookie {
			return c
		}
	}
	t.Fatal("device cookie not set")
	return nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(call{method: http.MethodGet, path: "/health"}), http.StatusOK)
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(call{method: http.MethodGet, path: "/api/v1/users/me"}), http.StatusUnauthorized)
	expectStatus(t, s.do(call{method: http.MethodGet, path: "/api/v1/users/me", token: "alice-token"}), http.StatusNotFound)

	rec := s.do(call{method: http.MethodPost, path: "/api/v1/users/initialize", token: "alice-token"})
	expectStatus(t, rec, http.StatusCreated)
	created := decode[InitializeResponse](t, rec)
	if !created.Created || created.User.ID != "alice" || created.User.Email != "alice@x.dev" {
		t.Fatalf("initialize = %+v", created)
	}

	rec = s.do(call{method: http.MethodPost, path: "/api/v1/users/initialize", token: "alice-token"})
	expectStatus(t, rec, http.StatusOK)
	if decode[InitializeResponse](t, rec).Created {
		t.Error("second initialize reported created")
	}

	rec = s.do(call{method: http.MethodPut, path: "/api/v1/users/me", token: "alice-token", body: map[string]string{"displayName": "Alice L."}})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.User](t, rec).DisplayName; got != "Alice L." {
		t.Errorf("displayName = %q", got)
	}

	expectStatus(t, s.do(call{method: http.MethodPost, path: "/api/v1/users/signout", token: "alice-token"}), http.StatusOK)
	if len(s.auth.revoked) != 1 || s.auth.revoked[0] != "alice" {
		t.Errorf("revoked = %v", s.auth.revoked)
	}
}

func TestInitializeTransfersAnonymousContributions(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject("Acme")

	rec := s.do(call{method: http.MethodPost, path: "/api/v1/projects/" + project.ID + "/threads",
		body: models.CreateThreadRequest{Title: "Crash", Content: "It crashes", Tag: models.TagBug}})
	expectStatus(t, rec, http.StatusCreated)
	thread := decode[models.Thread](t, rec)
	if thread.AnonymousID == "" || thread.AuthorID != "" {
		t.Fatalf("anonymous thread = %+v", thread)
	}
	cookie := deviceCookie(t, rec)

	rec = s.do(call{method: http.MethodPost, path: "/api/v1/threads/" + thread.ID + "/responses", cookie: cookie,
		body: models.CreateResponseRequest{Content: "More details"}})
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(call{method: http.MethodPost, path: "/api/v1/users/initialize", token: "alice-token", cookie: cookie})
	expectStatus(t, rec, http.StatusCreated)
	if got := decode[InitializeResponse](t, rec).Transferred; got != 2 {
		t.Errorf("transferred = %d, want 2", got)
	}

	stored, err := s.store.Threads.GetByID(context.Background(), thread.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.AuthorID != "alice" || stored.AnonymousID != "" {
		t.Errorf("thread author after transfer = %q/%q", stored.AuthorID, stored.AnonymousID)
	}
}

func TestProjectEndpoints(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(call{method: http.MethodPost, path: "/api/v1/projects", body: models.CreateProjectRequest{Name: "Acme"}}), http.StatusUnauthorized)
	expectStatus(t, s.do(call{method: http.MethodPost, path: "/api/v1/projects", token: "founder-token", body: map[string]string{}}), http.StatusBadRequest)

	project := s.createProject("Acme Tools")
	if project.Slug != "acme-tools" || project.OwnerID != "owner" {
		t.Fatalf("project = %+v", project)
	}

	for _, ref := range []string{project.Slug, project.ID} {
		rec := s.do(call{method: http.MethodGet, path: "/api/v1/projects/" + ref})
		expectStatus(t, rec, http.StatusOK)
		if got := decode[models.Project](t, rec).ID; got != project.ID {
			t.Errorf("GET %s returned project %q", ref, got)
		}
	}
	expectStatus(t, s.do(call{method: http.MethodGet, path: "/api/v1/projects/nope"}), http.StatusNotFound)

	expectStatus(t, s.do(call{method: http.MethodGet, path: "/api/v1/projects"}), http.StatusBadRequest)
	rec := s.do(call{method: http.MethodGet, path: "/api/v1/projects?ownerId=owner"})
	expectStatus(t, rec, http.StatusOK)
	if got := len(decode[[]models.Project](t, rec)); got != 1 {
		t.Errorf("listed %d projects, want 1", got)
	}

	newName := "Renamed"
	expectStatus(t, s.do(call{method: http.MethodPut, path: "/api/v1/projects/" + project.ID, token: "alice-token",
		body: models.UpdateProjectRequest{Name: &newName}}), http.StatusForbidden)
	rec = s.do(call{method: http.MethodPut, path: "/api/v1/projects/" + project.ID, token: "founder-token",
		body: models.UpdateProjectRequest{Name: &newName}})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Project](t, rec).Slug; got != "renamed" {
		t.Errorf("slug after rename = %q", got)
	}

	expectStatus(t, s.do(call{method: http.MethodPost, path: "/api/v1/projects/" + project.ID + "/reconcile", token: "alice-token"}), http.StatusForbidden)
	rec = s.do(call{method: http.MethodPost, path: "/api/v1/projects/" + project.ID + "/reconcile", token: "founder-token"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[core.ReconcileReport](t, rec).ProjectID; got != project.ID {
		t.Errorf("report project = %q", got)
	}
}

func TestThreadLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject("Acme")
	threadsPath := "/api/v1/projects/" + project.ID + "/threads"

	expectStatus(t, s.do(call{method: http.MethodPost, path: threadsPath, body: map[string]string{"title": "x"}}), http.StatusBadRequest)
	expectStatus(t, s.do(call{method: http.MethodPost, path: threadsPath,
		body: models.CreateThreadRequest{Title: "x", Content: "y", Tag: "rant"}}), http.StatusBadRequest)
	expectStatus(t, s.do(call{method: http.MethodPost, path: threadsPath, token: "bogus",
		body: models.CreateThreadRequest{Title: "x", Content: "y", Tag: models.TagBug}}), http.StatusUnauthorized)

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		rec := s.do(call{method: http.MethodPost, path: threadsPath, token: "alice-token",
			body: models.CreateThreadRequest{Title: title, Content: "body", Tag: models.TagQuestion}})
		expectStatus(t, rec, http.StatusCreated)
		ids = append(ids, decode[models.Thread](t, rec).ID)
	}

	rec := s.do(call{method: http.MethodGet, path: threadsPath + "?limit=2"})
	expectStatus(t, rec, http.StatusOK)
	page := decode[ThreadListResponse](t, rec)
	if len(page.Threads) != 2 || page.NextCursor == "" {
		t.Fatalf("first page = %d threads, cursor %q", len(page.Threads), page.NextCursor)
	}
	rec = s.do(call{method: http.MethodGet, path: threadsPath + "?limit=2&startAfter=" + page.NextCursor})
	expectStatus(t, rec, http.StatusOK)
	page = decode[ThreadListResponse](t, rec)
	if len(page.Threads) != 1 || page.NextCursor != "" {
		t.Fatalf("second page = %d threads, cursor %q", len(page.Threads), page.NextCursor)
	}
	expectStatus(t, s.do(call{method: http.MethodGet, path: threadsPath + "?limit=abc"}), http.StatusBadRequest)
	expectStatus(t, s.do(call{method: http.MethodGet, path: threadsPath + "?status=pending"}), http.StatusBadRequest)

	statusPath := "/api/v1/threads/" + ids[0] + "/status"
	closeReq := models.UpdateThreadStatusRequest{Status: models.ThreadStatusClosed, Reason: models.ReasonSolved}
	expectStatus(t, s.do(call{method: http.MethodPatch, path: statusPath, body: closeReq}), http.StatusUnauthorized)
	expectStatus(t, s.do(call{method: http.MethodPatch, path: statusPath, token: "alice-token", body: closeReq}), http.StatusForbidden)
	rec = s.do(call{method: http.MethodPatch, path: statusPath, token: "founder-token", body: closeReq})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Thread](t, rec); got.Status != models.ThreadStatusClosed || got.ClosedBy != "owner" {
		t.Errorf("closed thread = %+v", got)
	}

	rec = s.do(call{method: http.MethodGet, path: threadsPath + "?status=closed"})
	if got := len(decode[ThreadListResponse](t, rec).Threads); got != 1 {
		t.Errorf("closed threads = %d, want 1", got)
	}

	expectStatus(t, s.do(call{method: http.MethodDelete, path: "/api/v1/threads/" + ids[1], token: "alice-token"}), http.StatusForbidden)
	expectStatus(t, s.do(call{method: http.MethodDelete, path: "/api/v1/threads/" + ids[1], token: "founder-token"}), http.StatusNoContent)
	expectStatus(t, s.do(call{method: http.MethodGet, path: "/api/v1/threads/" + ids[1]}), http.StatusNotFound)

	p, err := s.store.Projects.GetByID(context.Background(), project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalIssues != 2 || p.ClosedIssues != 1 {
		t.Errorf("counters = %d/%d, want 2/1", p.TotalIssues, p.ClosedIssues)
	}
}

func TestResponseEndpoints(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject("Acme")
	rec := s.do(call{method: http.MethodPost, path: "/api/v1/projects/" + project.ID + "/threads", token: "alice-token",
		body: models.CreateThreadRequest{Title: "Q", Content: "?", Tag: models.TagHelp}})
	expectStatus(t, rec, http.StatusCreated)
	thread := decode[models.Thread](t, rec)
	responsesPath := "/api/v1/threads/" + thread.ID + "/responses"

	rec = s.do(call{method: http.MethodPost, path: responsesPath, token: "founder-token", body: models.CreateResponseRequest{Content: "Fixed"}})
	expectStatus(t, rec, http.StatusCreated)
	if !decode[models.Response](t, rec).IsFounder {
		t.Error("owner reply not flagged isFounder")
	}

	rec = s.do(call{method: http.MethodPost, path: responsesPath, body: models.CreateResponseRequest{Content: "Me too"}})
	expectStatus(t, rec, http.StatusCreated)
	anonReply := decode[models.Response](t, rec)
	cookie := deviceCookie(t, rec)

	rec = s.do(call{method: http.MethodGet, path: "/api/v1/threads/" + thread.ID})
	expectStatus(t, rec, http.StatusOK)
	detail := decode[ThreadDetailResponse](t, rec)
	if len(detail.Responses) != 2 || detail.Thread.ResponseCount != 2 {
		t.Fatalf("detail = %d responses, count %d", len(detail.Responses), detail.Thread.ResponseCount)
	}

	rec = s.do(call{method: http.MethodPost, path: responsesPath, token: "alice-token", body: models.CreateResponseRequest{Content: "Thanks"}})
	expectStatus(t, rec, http.StatusCreated)
	aliceReply := decode[models.Response](t, rec)

	deletePath := "/api/v1/responses/" + anonReply.ID
	expectStatus(t, s.do(call{method: http.MethodDelete, path: deletePath}), http.StatusUnauthorized)
	expectStatus(t, s.do(call{method: http.MethodDelete, path: deletePath, cookie: cookie}), http.StatusUnauthorized)
	expectStatus(t, s.do(call{method: http.MethodDelete, path: deletePath, token: "alice-token"}), http.StatusForbidden)
	expectStatus(t, s.do(call{method: http.MethodDelete, path: deletePath, token: "founder-token"}), http.StatusNoContent)
	expectStatus(t, s.do(call{method: http.MethodDelete, path: deletePath, token: "founder-token"}), http.StatusNotFound)
	expectStatus(t, s.do(call{method: http.MethodDelete, path: "/api/v1/responses/" + aliceReply.ID, token: "alice-token"}), http.StatusNoContent)
	expectStatus(t, s.do(call{method: http.MethodPost, path: "/api/v1/threads/missing/responses",
		body: models.CreateResponseRequest{Content: "hi"}}), http.StatusNotFound)
}

func TestForgedAnonymousIDCannotDeleteResponse(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject("Acme")
	rec := s.do(call{method: http.MethodPost, path: "/api/v1/projects/" + project.ID + "/threads", token: "alice-token",
		body: models.CreateThreadRequest{Title: "Q", Content: "?", Tag: models.TagHelp}})
	expectStatus(t, rec, http.StatusCreated)
	thread := decode[models.Thread](t, rec)

	rec = s.do(call{method: http.MethodPost, path: "/api/v1/threads/" + thread.ID + "/responses", body: models.CreateResponseRequest{Content: "Me too"}})
	expectStatus(t, rec, http.StatusCreated)
	victim := decode[models.Response](t, rec)
	if victim.AnonymousID == "" {
		t.Fatalf("reply is not anonymous: %+v", victim)
	}

	forged := map[string]string{"X-Anonymous-Id": victim.AnonymousID, "X-Anonymous-Name": victim.AuthorName}
	expectStatus(t, s.do(call{method: http.MethodDelete, path: "/api/v1/responses/" + victim.ID, header: forged}), http.StatusUnauthorized)

	rec = s.do(call{method: http.MethodGet, path: "/api/v1/threads/" + thread.ID})
	expectStatus(t, rec, http.StatusOK)
	if got := len(decode[ThreadDetailResponse](t, rec).Responses); got != 1 {
		t.Errorf("responses after forged delete = %d, want 1", got)
	}
}

func TestInitializeIgnoresForgedAnonymousID(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject("Acme")

	rec := s.do(call{method: http.MethodPost, path: "/api/v1/projects/" + project.ID + "/threads",
		body: models.CreateThreadRequest{Title: "Crash", Content: "It crashes", Tag: models.TagBug}})
	expectStatus(t, rec, http.StatusCreated)
	victim := decode[models.Thread](t, rec)

	rec = s.do(call{method: http.MethodPost, path: "/api/v1/users/initialize", token: "alice-token",
		header: map[string]string{"X-Anonymous-Id": victim.AnonymousID}})
	expectStatus(t, rec, http.StatusCreated)
	if got := decode[InitializeResponse](t, rec).Transferred; got != 0 {
		t.Errorf("transferred = %d, want 0", got)
	}

	stored, err := s.store.Threads.GetByID(context.Background(), victim.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.AuthorID != "" || stored.AnonymousID != victim.AnonymousID {
		t.Errorf("victim thread author = %q/%q, want anonymous %q", stored.AuthorID, stored.AnonymousID, victim.AnonymousID)
	}
}

func TestAnonymousIdentityEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(call{method: http.MethodGet, path: "/api/v1/anonymous/identity"})
	expectStatus(t, rec, http.StatusOK)
	first := decode[anonid.Identity](t, rec)

	rec = s.do(call{method: http.MethodGet, path: "/api/v1/anonymous/identity", cookie: deviceCookie(t, rec)})
	if got := decode[anonid.Identity](t, rec); got != first {
		t.Errorf("identity changed: %+v then %+v", first, got)
	}
}

func TestPresenceEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(call{method: http.MethodGet, path: "/api/v1/presence/owner"})
	expectStatus(t, rec, http.StatusOK)
	ev := decode[presence.Event](t, rec)
	if ev.UserID != "owner" || ev.Online || ev.LastSeen == nil {
		t.Errorf("status = %+v", ev)
	}

	expectStatus(t, s.do(call{method: http.MethodGet, path: "/api/v1/presence/ws"}), http.StatusUnauthorized)
	rec = s.do(call{method: http.MethodGet, path: "/api/v1/presence/ws?token=alice-token"})
	expectStatus(t, rec, http.StatusSwitchingProtocols)
	if rec.Body.String() != "alice" {
		t.Errorf("ws served for %q", rec.Body.String())
	}
}
