package api

import (
	"help-from-founder-go/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// InitializeResponse is returned by POST /users/initialize.
type InitializeResponse struct {
	User        *models.User `json:"user"`
	Created     bool         `json:"created"`
	Transferred int          `json:"transferred"`
}

// ThreadDetailResponse is a thread together with its responses, oldest first.
type ThreadDetailResponse struct {
	Thread    *models.Thread     `json:"thread"`
	Responses []*models.Response `json:"responses"`
}

// ThreadListResponse is one page of threads. NextCursor is the id to pass as
// startAfter for the following page and is empty on the last page.
type ThreadListResponse struct {
	Threads    []*models.Thread `json:"threads"`
	NextCursor string           `json:"nextCursor,omitempty"`
}
