package models

import "time"

// Response is a reply to a thread. IsFounder is computed once at write time
// and is not updated if project ownership later changes.
type Response struct {
	ID          string    `json:"id" firestore:"-"`
	ThreadID    string    `json:"threadId" firestore:"threadId"`
	Content     string    `json:"content" firestore:"content"`
	AuthorName  string    `json:"authorName" firestore:"authorName"`
	AuthorID    string    `json:"authorId,omitempty" firestore:"authorId,omitempty"`
	AnonymousID string    `json:"anonymousId,omitempty" firestore:"anonymousId,omitempty"`
	IsFounder   bool      `json:"isFounder" firestore:"isFounder"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

// Author returns the identity that wrote the response.
func (r *Response) Author() Identity {
	return Identity{UserID: r.AuthorID, AnonymousID: r.AnonymousID, DisplayName: r.AuthorName}
}
