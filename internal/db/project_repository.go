package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"help-from-founder-go/internal/models"
)

// firestoreProjectRepository implements ProjectRepository using Firestore.
type firestoreProjectRepository struct {
	client *firestore.Client
}

// NewFirestoreProjectRepository creates a new instance of firestoreProjectRepository.
func NewFirestoreProjectRepository(client *firestore.Client) ProjectRepository {
	return &firestoreProjectRepository{client: client}
}

// decodeProject reads a snapshot, accepting the legacy solvedIssues counter
// when closedIssues has never been written.
func decodeProject(snap *firestore.DocumentSnapshot) (*models.Project, error) {
	var p models.Project
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode project data for ID '%s': %w", snap.Ref.ID, err)
	}
	if _, ok := snap.Data()["closedIssues"]; !ok && p.SolvedIssues != nil {
		p.ClosedIssues = *p.SolvedIssues
	}
	p.SolvedIssues = nil
	p.ID = snap.Ref.ID
	return &p, nil
}

// Create adds a project document with an auto-generated ID.
func (r *firestoreProjectRepository) Create(ctx context.Context, project *models.Project) (string, error) {
	ref := r.client.Collection(projectsCollection).NewDoc()
	project.ID = ref.ID
	if _, err := ref.Create(ctx, project); err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}
	return ref.ID, nil
}

// GetByID retrieves a project by document ID.
func (r *firestoreProjectRepository) GetByID(ctx context.Context, projectID string) (*models.Project, error) {
	if projectID == "" {
		return nil, errors.New("projectID cannot be empty for GetByID operation")
	}
	snap, err := r.client.Collection(projectsCollection).Doc(projectID).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err, "project", projectID)
	}
	return decodeProject(snap)
}

// GetBySlug retrieves the project with the given slug.
func (r *firestoreProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	iter := r.client.Collection(projectsCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("project with slug '%s' not found: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project by slug '%s': %w", slug, err)
	}
	return decodeProject(snap)
}

// ListByOwner returns every project owned by ownerID.
func (r *firestoreProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for ListByOwner operation")
	}
	iter := r.client.Collection(projectsCollection).Where("ownerId", "==", ownerID).Documents(ctx)
	defer iter.Stop()

	var projects []*models.Project
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate projects for owner '%s': %w", ownerID, err)
		}
		p, err := decodeProject(snap)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// ListIDs returns the IDs of every project.
func (r *firestoreProjectRepository) ListIDs(ctx context.Context) ([]string, error) {
	refs, err := r.client.Collection(projectsCollection).DocumentRefs(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list project IDs: %w", err)
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// Update writes the editable fields of a project. Counters are left alone:
// they are only ever changed through IncrementCounters and SetCounters.
func (r *firestoreProjectRepository) Update(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		return errors.New("project ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(projectsCollection).Doc(project.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: project.Name},
		{Path: "slug", Value: project.Slug},
		{Path: "description", Value: project.Description},
		{Path: "website", Value: project.Website},
		{Path: "logoUrl", Value: project.LogoURL},
		{Path: "social", Value: project.Social},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return mapFirestoreError(err, "project", project.ID)
	}
	return nil
}

// IncrementCounters applies atomic field increments to the issue counters.
func (r *firestoreProjectRepository) IncrementCounters(ctx context.Context, projectID string, totalDelta, closedDelta int) error {
	var updates []firestore.Update
	if totalDelta != 0 {
		updates = append(updates, firestore.Update{Path: "totalIssues", Value: firestore.Increment(totalDelta)})
	}
	if closedDelta != 0 {
		updates = append(updates, firestore.Update{Path: "closedIssues", Value: firestore.Increment(closedDelta)})
	}
	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	if _, err := r.client.Collection(projectsCollection).Doc(projectID).Update(ctx, updates); err != nil {
		return mapFirestoreError(err, "project", projectID)
	}
	return nil
}

// SetCounters overwrites both issue counters.
func (r *firestoreProjectRepository) SetCounters(ctx context.Context, projectID string, total, closed int) error {
	_, err := r.client.Collection(projectsCollection).Doc(projectID).Update(ctx, []firestore.Update{
		{Path: "totalIssues", Value: total},
		{Path: "closedIssues", Value: closed},
		{Path: "solvedIssues", Value: firestore.Delete},
	})
	if err != nil {
		return mapFirestoreError(err, "project", projectID)
	}
	return nil
}
