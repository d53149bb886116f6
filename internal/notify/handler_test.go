package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestRouter(d *Dispatcher, legacy string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewHandler(d, zap.NewNop()), legacy)
	return r
}

func doPost(r http.Handler, path, body string) (*httptest.ResponseRecorder, SendResponse) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var resp SendResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestSendEmailStatuses(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		failFor    map[string]bool
		wantStatus int
		wantSends  int
		wantOK     bool
	}{
		{name: "success", body: validResponse, wantStatus: http.StatusOK, wantSends: 2, wantOK: true},
		{name: "partial", body: validResponse, failFor: map[string]bool{"b@example.com": true}, wantStatus: http.StatusMultiStatus, wantSends: 2, wantOK: true},
		{name: "all failed", body: validResponse, failFor: map[string]bool{"a@example.com": true, "b@example.com": true}, wantStatus: http.StatusInternalServerError, wantSends: 2},
		{name: "invalid payload", body: `{"type":"new_response"}`, wantStatus: http.StatusBadRequest, wantSends: 0},
		{name: "legacy shape", body: `{"type":"new_issue","founderEmail":"f@a.dev"}`, wantStatus: http.StatusBadRequest, wantSends: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{failFor: tt.failFor}
			r := newTestRouter(NewDispatcher(sender, Renderer{AppURL: "https://hff.dev"}, 2, zap.NewNop()), "")

			rec, resp := doPost(r, "/api/send-email", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(sender.sent) != tt.wantSends {
				t.Errorf("sends = %d, want %d", len(sender.sent), tt.wantSends)
			}
			if resp.Success != tt.wantOK {
				t.Errorf("success = %v, want %v", resp.Success, tt.wantOK)
			}
			if resp.Message == "" {
				t.Error("message is empty")
			}
			if resp.Failed != len(resp.Errors) {
				t.Errorf("failed = %d but %d errors listed", resp.Failed, len(resp.Errors))
			}
		})
	}
}

func TestSendEmailPartialListsFailedRecipient(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"b@example.com": true}}
	r := newTestRouter(NewDispatcher(sender, Renderer{}, 1, zap.NewNop()), "")

	_, resp := doPost(r, "/api/send-email", validResponse)
	if len(resp.Errors) != 1 || resp.Errors[0].Recipient != "b@example.com" {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	if resp.Sent != 1 {
		t.Errorf("sent = %d, want 1", resp.Sent)
	}
}

func TestSendEmailNotConfigured(t *testing.T) {
	r := newTestRouter(nil, "")

	rec, resp := doPost(r, "/api/send-email", validIssue)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp.Success {
		t.Error("success should be false")
	}
}

func TestLegacyPathRoutesToSameHandler(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRouter(NewDispatcher(sender, Renderer{}, 1, zap.NewNop()), "/api/notify-founder")

	rec, _ := doPost(r, "/api/notify-founder", validIssue)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sends = %d, want 1", len(sender.sent))
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(nil, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["message"] == "" {
		t.Errorf("health body = %v", body)
	}
}
