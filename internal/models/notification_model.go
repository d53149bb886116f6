package models

// NotificationType discriminates notification payloads.
type NotificationType string

const (
	NotificationNewIssue    NotificationType = "new_issue"
	NotificationNewResponse NotificationType = "new_response"
)

// NotificationRecipient is one addressee of a notification email.
type NotificationRecipient struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
}

// NotificationBase carries the fields shared by every notification type.
type NotificationBase struct {
	Type        NotificationType        `json:"type" validate:"required,oneof=new_issue new_response"`
	ProjectName string                  `json:"projectName" validate:"required"`
	ProjectSlug string                  `json:"projectSlug" validate:"required"`
	IssueID     string                  `json:"issueId" validate:"required"`
	IssueTitle  string                  `json:"issueTitle" validate:"required"`
	Recipients  []NotificationRecipient `json:"recipients" validate:"required,min=1,dive"`
}

// NewIssueNotification is sent to a founder when a thread is opened.
type NewIssueNotification struct {
	NotificationBase
	IssueContent string `json:"issueContent" validate:"required"`
	AuthorName   string `json:"authorName,omitempty"`
	Tag          string `json:"tag,omitempty"`
}

// NewResponseNotification is sent to thread participants when someone replies.
type NewResponseNotification struct {
	NotificationBase
	ResponseContent string `json:"responseContent" validate:"required"`
	ResponseAuthor  string `json:"responseAuthor" validate:"required"`
	IsFounder       bool   `json:"isFounder,omitempty"`
}
