package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/models"
	"help-from-founder-go/internal/policy"
)

const reconcileConcurrency = 8

// ReconcileReport describes the counters written by one reconciliation.
type ReconcileReport struct {
	ProjectID      string `json:"projectId"`
	TotalIssues    int    `json:"totalIssues"`
	ClosedIssues   int    `json:"closedIssues"`
	ThreadsChecked int    `json:"threadsChecked"`
	ThreadsFixed   int    `json:"threadsFixed"`
}

type reconcileService struct {
	store  *db.Store
	logger *zap.Logger
}

// NewReconcileService creates a ReconcileService. Reconciliation only reads
// source documents and overwrites counters, so running it twice is harmless.
func NewReconcileService(store *db.Store, logger *zap.Logger) ReconcileService {
	return &reconcileService{store: store, logger: logger}
}

func (s *reconcileService) ReconcileProject(ctx context.Context, actor models.Identity, projectID string) (*ReconcileReport, error) {
	project, err := getProject(ctx, s.store.Projects, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.IsFounder(actor, project) {
		return nil, fmt.Errorf("%w: only the project owner can reconcile project '%s'", ErrForbidden, projectID)
	}
	return s.reconcile(ctx, projectID)
}

func (s *reconcileService) reconcile(ctx context.Context, projectID string) (*ReconcileReport, error) {
	threads, err := s.store.Threads.ListByProject(ctx, projectID, models.ThreadQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads of project '%s': %w", projectID, err)
	}

	var fixed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, t := range threads {
		g.Go(func() error {
			n, err := s.store.Responses.CountByThread(gctx, t.ID)
			if err != nil {
				return fmt.Errorf("failed to count responses of thread '%s': %w", t.ID, err)
			}
			if n == t.ResponseCount {
				return nil
			}
			if err := s.store.Threads.SetResponseCount(gctx, t.ID, n); err != nil {
				return fmt.Errorf("failed to set responseCount of thread '%s': %w", t.ID, err)
			}
			fixed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total, err := s.store.Threads.CountByProject(ctx, projectID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to count threads of project '%s': %w", projectID, err)
	}
	closed, err := s.store.Threads.CountByProject(ctx, projectID, models.ThreadStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to count closed threads of project '%s': %w", projectID, err)
	}
	if err := s.store.Projects.SetCounters(ctx, projectID, total, closed); err != nil {
		return nil, fmt.Errorf("failed to set counters of project '%s': %w", projectID, err)
	}

	return &ReconcileReport{
		ProjectID:      projectID,
		TotalIssues:    total,
		ClosedIssues:   closed,
		ThreadsChecked: len(threads),
		ThreadsFixed:   int(fixed.Load()),
	}, nil
}

// ReconcileAll reconciles every project and returns how many succeeded.
// A failing project is logged and skipped.
func (s *reconcileService) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.store.Projects.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list projects: %w", err)
	}
	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		report, err := s.reconcile(ctx, id)
		if err != nil {
			s.logger.Error("Project reconciliation failed", zap.String("projectId", id), zap.Error(err))
			continue
		}
		if report.ThreadsFixed > 0 {
			s.logger.Info("Repaired drifted responseCount", zap.String("projectId", id), zap.Int("threads", report.ThreadsFixed))
		}
		done++
	}
	return done, nil
}

// RunReconciler calls ReconcileAll every interval until ctx is cancelled.
func RunReconciler(ctx context.Context, svc ReconcileService, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			n, err := svc.ReconcileAll(ctx)
			if err != nil {
				logger.Warn("Reconciliation pass interrupted", zap.Int("projects", n), zap.Error(err))
				continue
			}
			logger.Info("Reconciliation pass finished", zap.Int("projects", n), zap.Duration("took", time.Since(start)))
		}
	}
}
