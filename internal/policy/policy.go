// Package policy evaluates the document access rules in Go. The Admin SDK
// bypasses firestore.rules, so the API checks the same rules here before
// every write. Reads are public and need no check.
package policy

import (
	"slices"

	"help-from-founder-go/internal/models"
)

// CounterFields may be written on a project by anyone.
var CounterFields = []string{"totalIssues", "closedIssues", "updatedAt"}

// ThreadStatusFields may only be written by the project owner.
var ThreadStatusFields = []string{"status", "closingReason", "closingNote", "closedBy", "closedAt"}

// IsFounder reports whether actor owns project.
func IsFounder(actor models.Identity, project *models.Project) bool {
	return project != nil && project.IsOwner(actor.UserID)
}

// CanWriteUser reports whether actor may create or edit the user document userID.
func CanWriteUser(actor models.Identity, userID string) bool {
	return actor.IsAuthenticated() && actor.UserID == userID
}

// CanCreateProject reports whether actor may create a project owned by ownerID.
func CanCreateProject(actor models.Identity, ownerID string) bool {
	return actor.IsAuthenticated() && actor.UserID == ownerID
}

// CanUpdateProject reports whether actor may write fields on project.
// Non-owners are limited to the counter fields.
func CanUpdateProject(actor models.Identity, project *models.Project, fields []string) bool {
	if IsFounder(actor, project) {
		return true
	}
	return len(fields) > 0 && subset(fields, CounterFields)
}

// CanUpdateThread reports whether actor may write fields on a thread of project.
func CanUpdateThread(actor models.Identity, project *models.Project, fields []string) bool {
	if IsFounder(actor, project) {
		return true
	}
	for _, f := range fields {
		if slices.Contains(ThreadStatusFields, f) {
			return false
		}
	}
	return true
}

// CanDelete reports whether actor may delete a document written by author
// under project. Only a signed-in author counts; anonymous authorship is a
// pseudonym and grants no rights.
func CanDelete(actor models.Identity, author models.Identity, project *models.Project) bool {
	if IsFounder(actor, project) {
		return true
	}
	return actor.IsAuthenticated() && actor.UserID == author.UserID
}

func subset(fields, allowed []string) bool {
	for _, f := range fields {
		if !slices.Contains(allowed, f) {
			return false
		}
	}
	return true
}
