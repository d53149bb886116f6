package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"help-from-founder-go/internal/models"
)

// dispatchResult mirrors the dispatcher's response body.
type dispatchResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

// HTTPNotifier posts notification payloads to the dispatcher service.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPNotifier creates a notifier for the dispatcher at baseURL.
func NewHTTPNotifier(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/api/send-email",
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (n *HTTPNotifier) NotifyNewIssue(ctx context.Context, payload models.NewIssueNotification) error {
	return n.post(ctx, payload.IssueID, payload)
}

func (n *HTTPNotifier) NotifyNewResponse(ctx context.Context, payload models.NewResponseNotification) error {
	return n.post(ctx, payload.IssueID, payload)
}

func (n *HTTPNotifier) post(ctx context.Context, issueID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var result dispatchResult
	_ = json.Unmarshal(raw, &result)

	switch resp.StatusCode {
	case http.StatusOK:
		n.logger.Debug("Notification dispatched", zap.String("issueId", issueID), zap.Int("sent", result.Sent))
		return nil
	case http.StatusMultiStatus:
		n.logger.Warn("Notification partially dispatched", zap.String("issueId", issueID),
			zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
		return nil
	default:
		if result.Message != "" {
			return fmt.Errorf("dispatcher returned %d: %s", resp.StatusCode, result.Message)
		}
		return fmt.Errorf("dispatcher returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
}
