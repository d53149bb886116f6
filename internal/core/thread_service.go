package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/models"
	"help-from-founder-go/internal/policy"
)

const (
	// SelfReplyWindow suppresses notifications for consecutive replies by
	// the same identity.
	SelfReplyWindow = time.Hour

	notifyTimeout     = 10 * time.Second
	maxParticipants   = 5
	deleteConcurrency = 10

	DefaultThreadLimit = 20
	MaxThreadLimit     = 100

	anonymousAuthorName = "Anonymous"
)

type threadService struct {
	store    *db.Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	// async runs detached work. Tests replace it to run inline.
	async func(func())
}

// NewThreadService creates the lifecycle manager. A nil notifier disables
// notifications.
func NewThreadService(store *db.Store, notifier Notifier, logger *zap.Logger) ThreadService {
	return &threadService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		async:    func(f func()) { go f() },
	}
}

func (s *threadService) getThread(ctx context.Context, threadID string) (*models.Thread, error) {
	thread, err := s.store.Threads.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: thread with ID '%s'", ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("failed to get thread '%s': %w", threadID, err)
	}
	return thread, nil
}

// threadAndProject loads a thread and the project it belongs to.
func (s *threadService) threadAndProject(ctx context.Context, threadID string) (*models.Thread, *models.Project, error) {
	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	project, err := getProject(ctx, s.store.Projects, thread.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return thread, project, nil
}

func authorName(actor models.Identity, requested string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	if actor.DisplayName != "" {
		return actor.DisplayName
	}
	return anonymousAuthorName
}

// authorIDs returns the authorId/anonymousId pair for a new document.
func authorIDs(actor models.Identity) (string, string) {
	if actor.UserID != "" {
		return actor.UserID, ""
	}
	return "", actor.AnonymousID
}

// detach runs fn after the request returns, bounded by notifyTimeout.
func (s *threadService) detach(parent context.Context, what string, fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	ctx := context.WithoutCancel(parent)
	s.async(func() {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("Notification failed", zap.String("notification", what), zap.Error(err))
		}
	})
}

func (s *threadService) CreateThread(ctx context.Context, actor models.Identity, projectID string, req models.CreateThreadRequest) (*models.Thread, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	if !req.Tag.Valid() {
		return nil, fmt.Errorf("%w: unknown tag '%s'", ErrInvalidInput, req.Tag)
	}

	project, err := getProject(ctx, s.store.Projects, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	authorID, anonymousID := authorIDs(actor)
	thread := &models.Thread{
		ProjectID:   project.ID,
		Title:       title,
		Content:     content,
		Tag:         req.Tag,
		Status:      models.ThreadStatusOpen,
		AuthorName:  authorName(actor, req.AuthorName),
		AuthorID:    authorID,
		AnonymousID: anonymousID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.store.Threads.Create(ctx, thread)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread in repository: %w", err)
	}
	thread.ID = id

	if err := s.store.Projects.IncrementCounters(ctx, project.ID, 1, 0); err != nil {
		s.logger.Error("Failed to increment totalIssues", zap.String("projectId", project.ID), zap.String("threadId", id), zap.Error(err))
	}

	if !project.IsOwner(actor.UserID) {
		s.detach(ctx, string(models.NotificationNewIssue), func(ctx context.Context) error {
			return s.notifyNewIssue(ctx, project, thread)
		})
	}
	return thread, nil
}

func (s *threadService) notifyNewIssue(ctx context.Context, project *models.Project, thread *models.Thread) error {
	owner, err := s.store.Users.GetByID(ctx, project.OwnerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up project owner '%s': %w", project.OwnerID, err)
	}
	if owner.Email == "" {
		return nil
	}
	return s.notifier.NotifyNewIssue(ctx, models.NewIssueNotification{
		NotificationBase: models.NotificationBase{
			Type:        models.NotificationNewIssue,
			ProjectName: project.Name,
			ProjectSlug: project.Slug,
			IssueID:     thread.ID,
			IssueTitle:  thread.Title,
			Recipients:  []models.NotificationRecipient{{Email: owner.Email, Name: owner.DisplayName}},
		},
		IssueContent: thread.Content,
		AuthorName:   thread.AuthorName,
		Tag:          string(thread.Tag),
	})
}

func (s *threadService) GetThread(ctx context.Context, threadID string) (*models.Thread, []*models.Response, error) {
	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	responses, err := s.store.Responses.ListByThread(ctx, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list responses of thread '%s': %w", threadID, err)
	}
	return thread, responses, nil
}

func (s *threadService) ListThreads(ctx context.Context, projectID string, query models.ThreadQuery) ([]*models.Thread, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status '%s'", ErrInvalidInput, query.Status)
	}
	if query.Tag != "" && !query.Tag.Valid() {
		return nil, fmt.Errorf("%w: unknown tag '%s'", ErrInvalidInput, query.Tag)
	}
	switch {
	case query.Limit <= 0:
		query.Limit = DefaultThreadLimit
	case query.Limit > MaxThreadLimit:
		query.Limit = MaxThreadLimit
	}

	if _, err := getProject(ctx, s.store.Projects, projectID); err != nil {
		return nil, err
	}
	threads, err := s.store.Threads.ListByProject(ctx, projectID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads of project '%s': %w", projectID, err)
	}
	return threads, nil
}

// UpdateThreadStatus closes or reopens a thread. Setting the current status
// again changes nothing. Two concurrent calls are not coordinated and may
// both adjust closedIssues; the reconciler repairs the drift.
func (s *threadService) UpdateThreadStatus(ctx context.Context, actor models.Identity, threadID string, req models.UpdateThreadStatusRequest) (*models.Thread, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status '%s'", ErrInvalidInput, req.Status)
	}
	thread, project, err := s.threadAndProject(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateThread(actor, project, policy.ThreadStatusFields) {
		return nil, fmt.Errorf("%w: only the project owner can change the status of thread '%s'", ErrForbidden, threadID)
	}
	if req.Status == thread.Status {
		return thread, nil
	}

	var update models.ThreadStatusUpdate
	var closedDelta int
	if req.Status == models.ThreadStatusClosed {
		if !req.Reason.Valid() {
			return nil, fmt.Errorf("%w: a valid closing reason is required", ErrInvalidInput)
		}
		closedAt := s.now().UTC()
		update = models.ThreadStatusUpdate{
			Status:        models.ThreadStatusClosed,
			ClosingReason: req.Reason,
			ClosingNote:   strings.TrimSpace(req.Note),
			ClosedBy:      actor.UserID,
			ClosedAt:      &closedAt,
		}
		closedDelta = 1
	} else {
		update = models.ThreadStatusUpdate{Status: models.ThreadStatusOpen}
		closedDelta = -1
	}

	if err := s.store.Threads.UpdateStatus(ctx, threadID, update); err != nil {
		return nil, fmt.Errorf("failed to update status of thread '%s': %w", threadID, err)
	}
	if err := s.store.Projects.IncrementCounters(ctx, project.ID, 0, closedDelta); err != nil {
		s.logger.Error("Failed to adjust closedIssues", zap.String("projectId", project.ID), zap.String("threadId", threadID), zap.Error(err))
	}
	return s.getThread(ctx, threadID)
}

// DeleteThread removes a thread and its responses. The cascade is not atomic:
// a failure part-way leaves the thread with fewer responses.
func (s *threadService) DeleteThread(ctx context.Context, actor models.Identity, threadID string) error {
	thread, project, err := s.threadAndProject(ctx, threadID)
	if err != nil {
		return err
	}
	if !policy.IsFounder(actor, project) {
		return fmt.Errorf("%w: only the project owner can delete thread '%s'", ErrForbidden, threadID)
	}

	responses, err := s.store.Responses.ListByThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to list responses of thread '%s': %w", threadID, err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, r := range responses {
		g.Go(func() error {
			if err := s.store.Responses.Delete(gctx, r.ID); err != nil {
				return fmt.Errorf("failed to delete response '%s': %w", r.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.store.Threads.Delete(ctx, threadID); err != nil {
		return fmt.Errorf("failed to delete thread '%s': %w", threadID, err)
	}

	closedDelta := 0
	if thread.Status == models.ThreadStatusClosed {
		closedDelta = -1
	}
	if err := s.store.Projects.IncrementCounters(ctx, project.ID, -1, closedDelta); err != nil {
		s.logger.Error("Failed to adjust project counters after delete", zap.String("projectId", project.ID), zap.String("threadId", threadID), zap.Error(err))
	}
	return nil
}

func (s *threadService) CreateResponse(ctx context.Context, actor models.Identity, threadID string, req models.CreateResponseRequest) (*models.Response, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	thread, project, err := s.threadAndProject(ctx, threadID)
	if err != nil {
		return nil, err
	}

	previous, err := s.store.Responses.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses of thread '%s': %w", threadID, err)
	}

	now := s.now().UTC()
	authorID, anonymousID := authorIDs(actor)
	response := &models.Response{
		ThreadID:    thread.ID,
		Content:     content,
		AuthorName:  authorName(actor, req.AuthorName),
		AuthorID:    authorID,
		AnonymousID: anonymousID,
		IsFounder:   project.IsOwner(actor.UserID),
		CreatedAt:   now,
	}
	id, err := s.store.Responses.Create(ctx, response)
	if err != nil {
		return nil, fmt.Errorf("failed to create response in repository: %w", err)
	}
	response.ID = id

	if err := s.store.Threads.IncrementResponseCount(ctx, thread.ID, 1); err != nil {
		s.logger.Error("Failed to increment responseCount", zap.String("threadId", thread.ID), zap.String("responseId", id), zap.Error(err))
	}

	if isRapidSelfReply(previous, actor, now) {
		s.logger.Debug("Skipping notification for rapid self-reply", zap.String("threadId", thread.ID))
		return response, nil
	}
	s.detach(ctx, string(models.NotificationNewResponse), func(ctx context.Context) error {
		return s.notifyNewResponse(ctx, project, thread, response, actor)
	})
	return response, nil
}

// isRapidSelfReply reports whether the newest of previous was written by
// actor less than SelfReplyWindow before now.
func isRapidSelfReply(previous []*models.Response, actor models.Identity, now time.Time) bool {
	if len(previous) == 0 {
		return false
	}
	last := previous[len(previous)-1]
	return last.Author().Same(actor) && now.Sub(last.CreatedAt) < SelfReplyWindow
}

func (s *threadService) notifyNewResponse(ctx context.Context, project *models.Project, thread *models.Thread, response *models.Response, actor models.Identity) error {
	recipients, err := s.participants(ctx, thread, project, actor)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}
	return s.notifier.NotifyNewResponse(ctx, models.NewResponseNotification{
		NotificationBase: models.NotificationBase{
			Type:        models.NotificationNewResponse,
			ProjectName: project.Name,
			ProjectSlug: project.Slug,
			IssueID:     thread.ID,
			IssueTitle:  thread.Title,
			Recipients:  recipients,
		},
		ResponseContent: response.Content,
		ResponseAuthor:  response.AuthorName,
		IsFounder:       response.IsFounder,
	})
}

func (s *threadService) GetThreadParticipants(ctx context.Context, threadID string, exclude models.Identity) ([]models.NotificationRecipient, error) {
	thread, project, err := s.threadAndProject(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return s.participants(ctx, thread, project, exclude)
}

// participants orders candidates as the most recent distinct responders,
// then the thread author, then the project owner. Identities without a
// registered email are dropped.
func (s *threadService) participants(ctx context.Context, thread *models.Thread, project *models.Project, exclude models.Identity) ([]models.NotificationRecipient, error) {
	responses, err := s.store.Responses.ListByThread(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses of thread '%s': %w", thread.ID, err)
	}

	seen := map[string]bool{}
	if k := exclude.Key(); k != "" {
		seen[k] = true
	}
	var candidates []models.Identity
	add := func(id models.Identity) {
		k := id.Key()
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		candidates = append(candidates, id)
	}

	responders := 0
	for i := len(responses) - 1; i >= 0 && responders < maxParticipants; i-- {
		before := len(candidates)
		add(responses[i].Author())
		if len(candidates) > before {
			responders++
		}
	}
	add(thread.Author())
	add(models.Identity{UserID: project.OwnerID})

	recipients := make([]models.NotificationRecipient, 0, maxParticipants)
	for _, c := range candidates {
		if len(recipients) == maxParticipants {
			break
		}
		if c.UserID == "" {
			continue
		}
		user, err := s.store.Users.GetByID(ctx, c.UserID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to resolve participant '%s': %w", c.UserID, err)
		}
		if user.Email == "" {
			continue
		}
		recipients = append(recipients, models.NotificationRecipient{Email: user.Email, Name: user.DisplayName})
	}
	return recipients, nil
}

func (s *threadService) DeleteResponse(ctx context.Context, actor models.Identity, responseID string) error {
	response, err := s.store.Responses.GetByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: response with ID '%s'", ErrResponseNotFound, responseID)
		}
		return fmt.Errorf("failed to get response '%s': %w", responseID, err)
	}

	// An orphaned response has no project; only its author may remove it.
	var project *models.Project
	threadExists := true
	if _, p, err := s.threadAndProject(ctx, response.ThreadID); err == nil {
		project = p
	} else if errors.Is(err, ErrThreadNotFound) || errors.Is(err, ErrProjectNotFound) {
		threadExists = !errors.Is(err, ErrThreadNotFound)
	} else {
		return err
	}
	if !policy.CanDelete(actor, response.Author(), project) {
		return fmt.Errorf("%w: only the author or the project owner can delete response '%s'", ErrForbidden, responseID)
	}

	if err := s.store.Responses.Delete(ctx, responseID); err != nil {
		return fmt.Errorf("failed to delete response '%s': %w", responseID, err)
	}
	if threadExists {
		if err := s.store.Threads.IncrementResponseCount(ctx, response.ThreadID, -1); err != nil {
			s.logger.Error("Failed to decrement responseCount", zap.String("threadId", response.ThreadID), zap.String("responseId", responseID), zap.Error(err))
		}
	}
	return nil
}

func (s *threadService) TransferAnonymousUserData(ctx context.Context, anonymousID, userID string) (int, error) {
	if anonymousID == "" || userID == "" {
		return 0, nil
	}
	moved, err := s.store.Transfers.TransferAnonymousData(ctx, anonymousID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to transfer anonymous data of '%s' to user '%s': %w", anonymousID, userID, err)
	}
	if moved > 0 {
		s.logger.Info("Transferred anonymous contributions", zap.String("userId", userID), zap.Int("documents", moved))
	}
	return moved, nil
}
