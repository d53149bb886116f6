package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"help-from-founder-go/internal/models"
)

// firestoreResponseRepository implements ResponseRepository using Firestore.
type firestoreResponseRepository struct {
	client *firestore.Client
}

// NewFirestoreResponseRepository creates a new instance of firestoreResponseRepository.
func NewFirestoreResponseRepository(client *firestore.Client) ResponseRepository {
	return &firestoreResponseRepository{client: client}
}

func (r *firestoreResponseRepository) Create(ctx context.Context, response *models.Response) (string, error) {
	ref := r.client.Collection(responsesCollection).NewDoc()
	response.ID = ref.ID
	if _, err := ref.Create(ctx, response); err != nil {
		return "", fmt.Errorf("failed to create response: %w", err)
	}
	return ref.ID, nil
}

func (r *firestoreResponseRepository) GetByID(ctx context.Context, responseID string) (*models.Response, error) {
	if responseID == "" {
		return nil, errors.New("responseID cannot be empty for GetByID operation")
	}
	snap, err := r.client.Collection(responsesCollection).Doc(responseID).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err, "response", responseID)
	}
	var resp models.Response
	if err := snap.DataTo(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response data for ID '%s': %w", responseID, err)
	}
	resp.ID = snap.Ref.ID
	return &resp, nil
}

func (r *firestoreResponseRepository) ListByThread(ctx context.Context, threadID string) ([]*models.Response, error) {
	iter := r.client.Collection(responsesCollection).Where("threadId", "==", threadID).Documents(ctx)
	defer iter.Stop()

	var responses []*models.Response
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate responses for thread '%s': %w", threadID, err)
		}
		var resp models.Response
		if err := snap.DataTo(&resp); err != nil {
			return nil, fmt.Errorf("failed to decode response data for ID '%s': %w", snap.Ref.ID, err)
		}
		resp.ID = snap.Ref.ID
		responses = append(responses, &resp)
	}
	sortResponses(responses)
	return responses, nil
}

func (r *firestoreResponseRepository) Delete(ctx context.Context, responseID string) error {
	if _, err := r.client.Collection(responsesCollection).Doc(responseID).Delete(ctx); err != nil {
		return mapFirestoreError(err, "response", responseID)
	}
	return nil
}

func (r *firestoreResponseRepository) CountByThread(ctx context.Context, threadID string) (int, error) {
	n, err := countQuery(ctx, r.client.Collection(responsesCollection).Where("threadId", "==", threadID))
	if err != nil {
		return 0, fmt.Errorf("failed to count responses for thread '%s': %w", threadID, err)
	}
	return n, nil
}
