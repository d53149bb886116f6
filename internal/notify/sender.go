package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"help-from-founder-go/internal/config"
)

// ErrNotConfigured is returned when no email provider credential is set.
var ErrNotConfigured = errors.New("email provider is not configured")

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, to Recipient, msg Message) error
}

// Recipient is an email addressee.
type Recipient struct {
	Email string
	Name  string
}

// address formats the recipient as an RFC 5322 mailbox.
func (r Recipient) address() string {
	if r.Name == "" {
		return r.Email
	}
	return fmt.Sprintf("%q <%s>", r.Name, r.Email)
}

// NewSender picks the Resend API when RESEND_API_KEY is set and SMTP when
// SMTP_HOST is set. It returns ErrNotConfigured when neither is.
func NewSender(cfg *config.NotifierConfig) (Sender, error) {
	switch {
	case cfg.ResendAPIKey != "":
		return NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.ResendEndpoint, nil), nil
	case cfg.SMTPHost != "":
		return &SMTPSender{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.EmailFrom,
		}, nil
	}
	return nil, ErrNotConfigured
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// ResendSender sends through the Resend HTTP API.
type ResendSender struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewResendSender creates a ResendSender. A nil client gets a 10 second timeout.
func NewResendSender(apiKey, from, endpoint string, client *http.Client) *ResendSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if endpoint == "" {
		endpoint = "https://api.resend.com/emails"
	}
	return &ResendSender{apiKey: apiKey, from: from, endpoint: endpoint, client: client}
}

func (s *ResendSender) Send(ctx context.Context, to Recipient, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{to.address()},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// SMTPSender sends a multipart/alternative message through an SMTP relay.
type SMTPSender struct {
	Host string
	Port string
	User string
	Pass string
	From string

	// sendMail is smtp.SendMail unless replaced in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *SMTPSender) Send(_ context.Context, to Recipient, msg Message) error {
	raw, err := buildMIME(s.From, to.address(), msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	send := s.sendMail
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(s.Host+":"+s.Port, auth, envelopeAddress(s.From), []string{to.Email}, raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

func buildMIME(from, to string, msg Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, part := range []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		if _, err := io.WriteString(w, part.content); err != nil {
			return nil, fmt.Errorf("write mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", to)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerSafe(msg.Subject)))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
