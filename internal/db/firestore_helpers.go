package db

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"help-from-founder-go/internal/models"
)

const (
	usersCollection     = "users"
	projectsCollection  = "projects"
	threadsCollection   = "threads"
	responsesCollection = "responses"
)

// mapFirestoreError converts gRPC status codes into repository sentinels.
func mapFirestoreError(err error, what, id string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s with ID '%s' not found: %w", what, id, ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s with ID '%s' already exists: %w", what, id, ErrAlreadyExists)
	}
	return fmt.Errorf("%s '%s': %w", what, id, err)
}

// countQuery runs a server-side count aggregation.
func countQuery(ctx context.Context, q firestore.Query) (int, error) {
	results, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	raw, ok := results["all"]
	if !ok {
		return 0, fmt.Errorf("aggregation result missing count")
	}
	v, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregation value type %T", raw)
	}
	return int(v.GetIntegerValue()), nil
}

// paginateThreads sorts newest-first and applies the cursor and limit of q.
// Filtering on equality fields and sorting in process keeps every query
// servable by the automatic single-field indexes.
func paginateThreads(threads []*models.Thread, q models.ThreadQuery) []*models.Thread {
	sort.SliceStable(threads, func(i, j int) bool {
		if threads[i].CreatedAt.Equal(threads[j].CreatedAt) {
			return threads[i].ID > threads[j].ID
		}
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})
	// An unknown or filtered-out cursor yields an empty page rather than
	// restarting from the top.
	if q.StartAfter != "" {
		i := slices.IndexFunc(threads, func(t *models.Thread) bool { return t.ID == q.StartAfter })
		if i < 0 {
			return nil
		}
		threads = threads[i+1:]
	}
	if q.Limit > 0 && len(threads) > q.Limit {
		threads = threads[:q.Limit]
	}
	return threads
}

// sortResponses orders responses oldest-first.
func sortResponses(responses []*models.Response) {
	sort.SliceStable(responses, func(i, j int) bool {
		if responses[i].CreatedAt.Equal(responses[j].CreatedAt) {
			return responses[i].ID < responses[j].ID
		}
		return responses[i].CreatedAt.Before(responses[j].CreatedAt)
	})
}
