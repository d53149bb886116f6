package models

// CreateProjectRequest represents the request body for creating a project.
type CreateProjectRequest struct {
	Name        string      `json:"name" binding:"required,max=100"`
	Description string      `json:"description" binding:"max=2000"`
	Website     string      `json:"website,omitempty" binding:"omitempty,url"`
	LogoURL     string      `json:"logoUrl,omitempty"`
	Social      SocialLinks `json:"social"`
}

// UpdateProjectRequest represents the request body for updating a project.
// Pointers distinguish fields that were not sent from fields being cleared.
type UpdateProjectRequest struct {
	Name        *string      `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Description *string      `json:"description,omitempty" binding:"omitempty,max=2000"`
	Website     *string      `json:"website,omitempty"`
	LogoURL     *string      `json:"logoUrl,omitempty"`
	Social      *SocialLinks `json:"social,omitempty"`
}

// CreateThreadRequest represents the request body for opening a thread.
type CreateThreadRequest struct {
	Title      string    `json:"title" binding:"required,max=200"`
	Content    string    `json:"content" binding:"required,max=10000"`
	Tag        ThreadTag `json:"tag" binding:"required"`
	AuthorName string    `json:"authorName,omitempty" binding:"max=100"`
}

// CreateResponseRequest represents the request body for replying to a thread.
type CreateResponseRequest struct {
	Content    string `json:"content" binding:"required,max=10000"`
	AuthorName string `json:"authorName,omitempty" binding:"max=100"`
}

// UpdateThreadStatusRequest represents the request body for closing or
// reopening a thread.
type UpdateThreadStatusRequest struct {
	Status ThreadStatus  `json:"status" binding:"required"`
	Reason ClosingReason `json:"reason,omitempty"`
	Note   string        `json:"note,omitempty" binding:"max=2000"`
}

// UpdateUserRequest represents the request body for editing a profile.
type UpdateUserRequest struct {
	DisplayName *string      `json:"displayName,omitempty" binding:"omitempty,min=1,max=100"`
	PhotoURL    *string      `json:"photoURL,omitempty"`
	Website     *string      `json:"website,omitempty"`
	Social      *SocialLinks `json:"social,omitempty"`
}
