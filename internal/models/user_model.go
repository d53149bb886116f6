package models

import "time"

// User represents a registered user. The document ID is the Firebase Auth UID.
type User struct {
	ID          string      `json:"id" firestore:"-"`
	Email       string      `json:"email" firestore:"email"`
	DisplayName string      `json:"displayName,omitempty" firestore:"displayName"`
	PhotoURL    string      `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	Website     string      `json:"website,omitempty" firestore:"website,omitempty"`
	Social      SocialLinks `json:"social" firestore:"social"`
	LastSeen    *time.Time  `json:"lastSeen,omitempty" firestore:"lastSeen,omitempty"`
	CreatedAt   time.Time   `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time   `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// SocialLinks are optional profile links shared by users and projects.
type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty" firestore:"twitter,omitempty"`
	Github   string `json:"github,omitempty" firestore:"github,omitempty"`
	Linkedin string `json:"linkedin,omitempty" firestore:"linkedin,omitempty"`
}
