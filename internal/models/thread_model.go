package models

import "time"

// ThreadStatus is the two-state lifecycle of a thread.
type ThreadStatus string

const (
	ThreadStatusOpen   ThreadStatus = "open"
	ThreadStatusClosed ThreadStatus = "closed"

	// threadStatusResolved only appears in documents written before the
	// closing-reason revision. It is read as closed/solved.
	threadStatusResolved ThreadStatus = "resolved"
)

// Valid reports whether s is a status that may be written.
func (s ThreadStatus) Valid() bool {
	return s == ThreadStatusOpen || s == ThreadStatusClosed
}

// ThreadTag classifies a thread.
type ThreadTag string

const (
	TagBug           ThreadTag = "bug"
	TagFeature       ThreadTag = "feature"
	TagQuestion      ThreadTag = "question"
	TagHelp          ThreadTag = "help"
	TagDocumentation ThreadTag = "documentation"
)

// Valid reports whether t is one of the known tags.
func (t ThreadTag) Valid() bool {
	switch t {
	case TagBug, TagFeature, TagQuestion, TagHelp, TagDocumentation:
		return true
	}
	return false
}

// ClosingReason records why a founder closed a thread.
type ClosingReason string

const (
	ReasonSolved    ClosingReason = "solved"
	ReasonDuplicate ClosingReason = "duplicate"
	ReasonWontFix   ClosingReason = "wont_fix"
	ReasonInvalid   ClosingReason = "invalid"
	ReasonOther     ClosingReason = "other"
)

// Valid reports whether r is one of the known closing reasons.
func (r ClosingReason) Valid() bool {
	switch r {
	case ReasonSolved, ReasonDuplicate, ReasonWontFix, ReasonInvalid, ReasonOther:
		return true
	}
	return false
}

// Thread is a question or issue opened on a project. Exactly one of AuthorID
// and AnonymousID identifies the author; legacy documents may carry neither.
type Thread struct {
	ID            string        `json:"id" firestore:"-"`
	ProjectID     string        `json:"projectId" firestore:"projectId"`
	Title         string        `json:"title" firestore:"title"`
	Content       string        `json:"content" firestore:"content"`
	Tag           ThreadTag     `json:"tag" firestore:"tag"`
	Status        ThreadStatus  `json:"status" firestore:"status"`
	ClosingReason ClosingReason `json:"closingReason,omitempty" firestore:"closingReason,omitempty"`
	ClosingNote   string        `json:"closingNote,omitempty" firestore:"closingNote,omitempty"`
	ClosedBy      string        `json:"closedBy,omitempty" firestore:"closedBy,omitempty"`
	AuthorName    string        `json:"authorName" firestore:"authorName"`
	AuthorID      string        `json:"authorId,omitempty" firestore:"authorId,omitempty"`
	AnonymousID   string        `json:"anonymousId,omitempty" firestore:"anonymousId,omitempty"`
	ResponseCount int           `json:"responseCount" firestore:"responseCount"`
	CreatedAt     time.Time     `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt     time.Time     `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
	ClosedAt      *time.Time    `json:"closedAt,omitempty" firestore:"closedAt,omitempty"`
}

// Normalize rewrites legacy status values in place.
func (t *Thread) Normalize() {
	if t.Status == threadStatusResolved {
		t.Status = ThreadStatusClosed
		if t.ClosingReason == "" {
			t.ClosingReason = ReasonSolved
		}
	}
	if t.Status == "" {
		t.Status = ThreadStatusOpen
	}
}

// Author returns the identity that opened the thread.
func (t *Thread) Author() Identity {
	return Identity{UserID: t.AuthorID, AnonymousID: t.AnonymousID, DisplayName: t.AuthorName}
}

// ThreadStatusUpdate is the set of fields written when a thread is closed or
// reopened. A nil ClosedAt clears every closing field.
type ThreadStatusUpdate struct {
	Status        ThreadStatus
	ClosingReason ClosingReason
	ClosingNote   string
	ClosedBy      string
	ClosedAt      *time.Time
}

// ThreadQuery filters and paginates the threads of a project.
type ThreadQuery struct {
	Status     ThreadStatus
	Tag        ThreadTag
	Limit      int
	StartAfter string
}
