package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"help-from-founder-go/internal/models"
)

// firestoreThreadRepository implements ThreadRepository using Firestore.
type firestoreThreadRepository struct {
	client *firestore.Client
}

// NewFirestoreThreadRepository creates a new instance of firestoreThreadRepository.
func NewFirestoreThreadRepository(client *firestore.Client) ThreadRepository {
	return &firestoreThreadRepository{client: client}
}

func decodeThread(snap *firestore.DocumentSnapshot) (*models.Thread, error) {
	var t models.Thread
	if err := snap.DataTo(&t); err != nil {
		return nil, fmt.Errorf("failed to decode thread data for ID '%s': %w", snap.Ref.ID, err)
	}
	t.ID = snap.Ref.ID
	t.Normalize()
	return &t, nil
}

func (r *firestoreThreadRepository) Create(ctx context.Context, thread *models.Thread) (string, error) {
	ref := r.client.Collection(threadsCollection).NewDoc()
	thread.ID = ref.ID
	if _, err := ref.Create(ctx, thread); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return ref.ID, nil
}

func (r *firestoreThreadRepository) GetByID(ctx context.Context, threadID string) (*models.Thread, error) {
	if threadID == "" {
		return nil, errors.New("threadID cannot be empty for GetByID operation")
	}
	snap, err := r.client.Collection(threadsCollection).Doc(threadID).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err, "thread", threadID)
	}
	return decodeThread(snap)
}

// ListByProject filters on equality fields only and sorts in process.
// The legacy "resolved" status is matched together with "closed".
func (r *firestoreThreadRepository) ListByProject(ctx context.Context, projectID string, q models.ThreadQuery) ([]*models.Thread, error) {
	query := r.client.Collection(threadsCollection).Where("projectId", "==", projectID)
	if q.Tag != "" {
		query = query.Where("tag", "==", string(q.Tag))
	}
	switch q.Status {
	case models.ThreadStatusClosed:
		query = query.Where("status", "in", []string{"closed", "resolved"})
	case models.ThreadStatusOpen:
		query = query.Where("status", "==", "open")
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var threads []*models.Thread
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate threads for project '%s': %w", projectID, err)
		}
		t, err := decodeThread(snap)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return paginateThreads(threads, q), nil
}

// UpdateStatus writes the status fields. Reopening deletes the closing fields.
func (r *firestoreThreadRepository) UpdateStatus(ctx context.Context, threadID string, u models.ThreadStatusUpdate) error {
	updates := []firestore.Update{
		{Path: "status", Value: string(u.Status)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if u.ClosedAt != nil {
		updates = append(updates,
			firestore.Update{Path: "closingReason", Value: string(u.ClosingReason)},
			firestore.Update{Path: "closingNote", Value: u.ClosingNote},
			firestore.Update{Path: "closedBy", Value: u.ClosedBy},
			firestore.Update{Path: "closedAt", Value: *u.ClosedAt},
		)
	} else {
		for _, path := range []string{"closingReason", "closingNote", "closedBy", "closedAt"} {
			updates = append(updates, firestore.Update{Path: path, Value: firestore.Delete})
		}
	}
	if _, err := r.client.Collection(threadsCollection).Doc(threadID).Update(ctx, updates); err != nil {
		return mapFirestoreError(err, "thread", threadID)
	}
	return nil
}

func (r *firestoreThreadRepository) Delete(ctx context.Context, threadID string) error {
	if _, err := r.client.Collection(threadsCollection).Doc(threadID).Delete(ctx); err != nil {
		return mapFirestoreError(err, "thread", threadID)
	}
	return nil
}

func (r *firestoreThreadRepository) IncrementResponseCount(ctx context.Context, threadID string, delta int) error {
	_, err := r.client.Collection(threadsCollection).Doc(threadID).Update(ctx, []firestore.Update{
		{Path: "responseCount", Value: firestore.Increment(delta)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return mapFirestoreError(err, "thread", threadID)
	}
	return nil
}

func (r *firestoreThreadRepository) SetResponseCount(ctx context.Context, threadID string, count int) error {
	_, err := r.client.Collection(threadsCollection).Doc(threadID).Update(ctx, []firestore.Update{
		{Path: "responseCount", Value: count},
	})
	if err != nil {
		return mapFirestoreError(err, "thread", threadID)
	}
	return nil
}

func (r *firestoreThreadRepository) CountByProject(ctx context.Context, projectID string, status models.ThreadStatus) (int, error) {
	query := r.client.Collection(threadsCollection).Where("projectId", "==", projectID)
	switch status {
	case models.ThreadStatusClosed:
		query = query.Where("status", "in", []string{"closed", "resolved"})
	case models.ThreadStatusOpen:
		query = query.Where("status", "==", "open")
	}
	n, err := countQuery(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count threads for project '%s': %w", projectID, err)
	}
	return n, nil
}
