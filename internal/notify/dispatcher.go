package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Failure records one recipient whose send failed.
type Failure struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// Result summarizes one dispatch.
type Result struct {
	Attempted int
	Sent      int
	Failures  []Failure
}

// StatusCode maps a result to the HTTP status the dispatcher answers with:
// 200 when every send succeeded, 207 on partial success, 500 when all failed.
func (r Result) StatusCode() int {
	switch {
	case r.Attempted > 0 && r.Sent == r.Attempted:
		return http.StatusOK
	case r.Sent > 0:
		return http.StatusMultiStatus
	}
	return http.StatusInternalServerError
}

// Summary is the human-readable message of a result.
func (r Result) Summary() string {
	switch r.StatusCode() {
	case http.StatusOK:
		return fmt.Sprintf("Sent %d email(s)", r.Sent)
	case http.StatusMultiStatus:
		return fmt.Sprintf("Sent %d of %d email(s)", r.Sent, r.Attempted)
	}
	return fmt.Sprintf("Failed to send all %d email(s)", r.Attempted)
}

// Dispatcher renders a notification once and sends it to every recipient.
type Dispatcher struct {
	sender      Sender
	renderer    Renderer
	concurrency int
	logger      *zap.Logger
}

// NewDispatcher creates a Dispatcher. concurrency bounds parallel sends.
func NewDispatcher(sender Sender, renderer Renderer, concurrency int, logger *zap.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{sender: sender, renderer: renderer, concurrency: concurrency, logger: logger}
}

// Dispatch sends one email per recipient. A failed send never stops the others.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) (Result, error) {
	msg, err := d.renderer.Render(n)
	if err != nil {
		return Result{}, err
	}
	recipients := n.Base().Recipients

	var (
		mu  sync.Mutex
		res = Result{Attempted: len(recipients)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, rcpt := range recipients {
		g.Go(func() error {
			err := d.sender.Send(gctx, Recipient{Email: rcpt.Email, Name: rcpt.Name}, msg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.logger.Warn("Notification send failed",
					zap.String("recipient", rcpt.Email),
					zap.String("type", string(n.Base().Type)),
					zap.Error(err))
				res.Failures = append(res.Failures, Failure{Recipient: rcpt.Email, Error: err.Error()})
				return nil
			}
			res.Sent++
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("Notification dispatched",
		zap.String("type", string(n.Base().Type)),
		zap.String("issueId", n.Base().IssueID),
		zap.Int("sent", res.Sent),
		zap.Int("failed", len(res.Failures)))
	return res, nil
}
