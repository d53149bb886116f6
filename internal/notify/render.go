package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Message is a rendered email shared by every recipient of one request.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// templateData feeds both the HTML and the plaintext templates.
type templateData struct {
	Heading     string
	ProjectName string
	IssueTitle  string
	Tag         string
	Author      string
	IsFounder   bool
	Body        string
	Link        string
}

const htmlLayout = `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 24px;">
  <h2 style="margin: 0 0 8px;">{{.Heading}}</h2>
  <p style="margin: 0 0 16px; color: #6b7280;">{{.ProjectName}}{{if .Tag}} &middot; {{.Tag}}{{end}}</p>
  <h3 style="margin: 0 0 8px;">{{.IssueTitle}}</h3>
  <p style="margin: 0 0 8px; color: #6b7280;">{{.Author}}{{if .IsFounder}} (founder){{end}} wrote:</p>
  <blockquote style="margin: 0 0 24px; padding: 12px 16px; background: #f3f4f6; border-radius: 6px; white-space: pre-wrap;">{{.Body}}</blockquote>
  <a href="{{.Link}}" style="display: inline-block; padding: 10px 18px; background: #111827; color: #ffffff; border-radius: 6px; text-decoration: none;">View thread</a>
  <p style="margin-top: 32px; font-size: 12px; color: #9ca3af;">You are receiving this because you are part of this conversation on Help From Founder.</p>
</body>
</html>
`

const textLayout = `{{.Heading}}
{{.ProjectName}}{{if .Tag}} - {{.Tag}}{{end}}

{{.IssueTitle}}

{{.Author}}{{if .IsFounder}} (founder){{end}} wrote:
{{.Body}}

View thread: {{.Link}}

You are receiving this because you are part of this conversation on Help From Founder.
`

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("email.html").Parse(htmlLayout))
	textTmpl = texttemplate.Must(texttemplate.New("email.txt").Parse(textLayout))
)

// Renderer turns a notification into a Message. AppURL is the base of the
// thread link.
type Renderer struct {
	AppURL string
}

// ThreadLink returns the public URL of a thread.
func (r Renderer) ThreadLink(projectSlug, issueID string) string {
	return fmt.Sprintf("%s/%s/threads/%s", strings.TrimSuffix(r.AppURL, "/"), projectSlug, issueID)
}

// headerSafe folds CR and LF into spaces so user text cannot end a header line.
func headerSafe(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// Render produces the subject, HTML and plaintext bodies.
func (r Renderer) Render(n Notification) (Message, error) {
	var subject string
	var data templateData

	switch {
	case n.NewIssue != nil:
		p := n.NewIssue
		author := p.AuthorName
		if author == "" {
			author = "Someone"
		}
		subject = fmt.Sprintf("New issue on %s: %s", p.ProjectName, p.IssueTitle)
		data = templateData{
			Heading:     "A new issue was opened",
			ProjectName: p.ProjectName,
			IssueTitle:  p.IssueTitle,
			Tag:         p.Tag,
			Author:      author,
			Body:        p.IssueContent,
			Link:        r.ThreadLink(p.ProjectSlug, p.IssueID),
		}
	case n.NewResponse != nil:
		p := n.NewResponse
		subject = fmt.Sprintf("New reply on \"%s\" (%s)", p.IssueTitle, p.ProjectName)
		heading := "New reply to a thread you follow"
		if p.IsFounder {
			heading = "The founder replied to a thread you follow"
		}
		data = templateData{
			Heading:     heading,
			ProjectName: p.ProjectName,
			IssueTitle:  p.IssueTitle,
			Author:      p.ResponseAuthor,
			IsFounder:   p.IsFounder,
			Body:        p.ResponseContent,
			Link:        r.ThreadLink(p.ProjectSlug, p.IssueID),
		}
	default:
		return Message{}, fmt.Errorf("render: empty notification")
	}

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	return Message{Subject: headerSafe(subject), HTML: html.String(), Text: text.String()}, nil
}
