package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
)

// firestoreTransferLimit is the write ceiling of a single Firestore transaction.
const firestoreTransferLimit = 500

// ErrTransferTooLarge is returned when an anonymous identity owns more
// documents than fit in one transaction.
var ErrTransferTooLarge = errors.New("too many documents to transfer atomically")

type firestoreTransferRepository struct {
	client *firestore.Client
}

// NewFirestoreTransferRepository creates a TransferRepository on Firestore.
func NewFirestoreTransferRepository(client *firestore.Client) TransferRepository {
	return &firestoreTransferRepository{client: client}
}

// TransferAnonymousData runs all reads before any write, as transactions require.
func (r *firestoreTransferRepository) TransferAnonymousData(ctx context.Context, anonymousID, userID string) (int, error) {
	if anonymousID == "" || userID == "" {
		return 0, nil
	}

	moved := 0
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		moved = 0
		var refs []*firestore.DocumentRef
		for _, coll := range []string{threadsCollection, responsesCollection} {
			q := r.client.Collection(coll).Where("anonymousId", "==", anonymousID)
			snaps, err := tx.Documents(q).GetAll()
			if err != nil {
				return fmt.Errorf("query %s for anonymous id: %w", coll, err)
			}
			for _, s := range snaps {
				refs = append(refs, s.Ref)
			}
		}
		if len(refs) > firestoreTransferLimit {
			return fmt.Errorf("%w: %d documents", ErrTransferTooLarge, len(refs))
		}
		for _, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "authorId", Value: userID},
				{Path: "anonymousId", Value: firestore.Delete},
			}); err != nil {
				return err
			}
		}
		moved = len(refs)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to transfer anonymous data to user '%s': %w", userID, err)
	}
	return moved, nil
}

// NewFirestoreStore wires every Firestore repository to one client.
func NewFirestoreStore(client *firestore.Client) *Store {
	return &Store{
		Users:     NewFirestoreUserRepository(client),
		Projects:  NewFirestoreProjectRepository(client),
		Threads:   NewFirestoreThreadRepository(client),
		Responses: NewFirestoreResponseRepository(client),
		Transfers: NewFirestoreTransferRepository(client),
	}
}
