package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"help-from-founder-go/internal/models"
)

// firestoreUserRepository implements UserRepository using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

// Create adds a user document keyed by the Firebase Auth UID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	if _, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user); err != nil {
		return mapFirestoreError(err, "user", user.ID)
	}
	return nil
}

// GetByID retrieves a user document by its Firebase Auth UID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	snap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err, "user", userID)
	}

	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = snap.Ref.ID
	return &user, nil
}

// Update writes the profile fields of an existing user. Set with MergeAll
// would create a missing document, so the write is a field update instead.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Update(ctx, []firestore.Update{
		{Path: "displayName", Value: user.DisplayName},
		{Path: "photoURL", Value: user.PhotoURL},
		{Path: "website", Value: user.Website},
		{Path: "social", Value: user.Social},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return mapFirestoreError(err, "user", user.ID)
	}
	return nil
}

// UpdateLastSeen records when the user was last connected.
func (r *firestoreUserRepository) UpdateLastSeen(ctx context.Context, userID string, at time.Time) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "lastSeen", Value: at},
	})
	if err != nil {
		return mapFirestoreError(err, "user", userID)
	}
	return nil
}
