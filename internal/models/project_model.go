package models

import "time"

// Project is a page owned by a founder on which visitors open threads.
// TotalIssues and ClosedIssues are denormalized counters maintained at each
// mutation site and recomputed by the reconciler.
type Project struct {
	ID           string      `json:"id" firestore:"-"`
	Name         string      `json:"name" firestore:"name"`
	Slug         string      `json:"slug" firestore:"slug"`
	Description  string      `json:"description" firestore:"description"`
	OwnerID      string      `json:"ownerId" firestore:"ownerId"`
	Website      string      `json:"website,omitempty" firestore:"website,omitempty"`
	LogoURL      string      `json:"logoUrl,omitempty" firestore:"logoUrl,omitempty"`
	Social       SocialLinks `json:"social" firestore:"social"`
	TotalIssues  int         `json:"totalIssues" firestore:"totalIssues"`
	ClosedIssues int         `json:"closedIssues" firestore:"closedIssues"`
	// SolvedIssues is the counter name used by older documents.
	SolvedIssues *int      `json:"-" firestore:"solvedIssues,omitempty"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// IsOwner reports whether userID owns the project. Anonymous callers never do.
func (p *Project) IsOwner(userID string) bool {
	return userID != "" && p.OwnerID == userID
}
