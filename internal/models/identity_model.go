package models

// Identity is whoever is acting on a request: a signed-in user, an anonymous
// visitor, or nobody. UserID takes precedence when both are present.
type Identity struct {
	UserID      string `json:"userId,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// IsZero reports whether the identity names nobody.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.AnonymousID == ""
}

// IsAuthenticated reports whether the identity is a signed-in user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// Key returns a string unique per identity, used for de-duplication.
// Users and anonymous visitors live in separate key spaces.
func (i Identity) Key() string {
	if i.UserID != "" {
		return "user:" + i.UserID
	}
	if i.AnonymousID != "" {
		return "anon:" + i.AnonymousID
	}
	return ""
}

// Same reports whether two identities refer to the same actor.
func (i Identity) Same(other Identity) bool {
	k := i.Key()
	return k != "" && k == other.Key()
}
