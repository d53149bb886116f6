package imagerelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type storedObject struct {
	data        []byte
	contentType string
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
	expiry  time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]storedObject)}
}

func (s *fakeStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{data: data, contentType: contentType}
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (s *fakeStore) PresignPut(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.expiry = expiry
	return "https://bucket.example.com/" + key + "?X-Amz-Signature=sig", nil
}

func newTestRouter(store ObjectStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(store, zap.NewNop())
	h.newKey = func() string { return "fixed-key" }
	RegisterRoutes(r, h)
	return r
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)},
		"Content-Type":        {contentType},
	})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadStoresImage(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "Logo.PNG", "image/png", []byte("pngbytes")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool   `json:"success"`
		Key     string `json:"key"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Success || body.Key != "fixed-key.png" {
		t.Errorf("body = %+v", body)
	}
	if obj := store.objects["fixed-key.png"]; obj.contentType != "image/png" || string(obj.data) != "pngbytes" {
		t.Errorf("stored object = %+v", obj)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{name: "pdf", contentType: "application/pdf"},
		{name: "text", contentType: "text/plain"},
		{name: "octet", contentType: "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			r := newTestRouter(store)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, multipartUpload(t, "doc.bin", tt.contentType, []byte("data")))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if len(store.objects) != 0 {
				t.Error("non-image upload was written to the store")
			}
		})
	}
}

func TestUploadMissingFile(t *testing.T) {
	r := newTestRouter(newFakeStore())
	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServe(t *testing.T) {
	store := newFakeStore()
	store.objects["abc.webp"] = storedObject{data: []byte("webpbytes"), contentType: "image/webp"}
	r := newTestRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/abc.webp", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/webp" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "max-age=31536000") {
		t.Errorf("Cache-Control = %q", got)
	}
	if rec.Body.String() != "webpbytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestServeMissing(t *testing.T) {
	r := newTestRouter(newFakeStore())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/nope.png", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUploadURL(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKey    string
	}{
		{name: "jpeg", body: `{"fileType":"image/jpeg"}`, wantStatus: http.StatusOK, wantKey: "fixed-key.jpg"},
		{name: "unknown image subtype", body: `{"fileType":"image/x-icon"}`, wantStatus: http.StatusOK, wantKey: "fixed-key"},
		{name: "not an image", body: `{"fileType":"application/zip"}`, wantStatus: http.StatusBadRequest},
		{name: "missing", body: `{}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			r := newTestRouter(store)

			req := httptest.NewRequest(http.MethodPost, "/api/images/upload-url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body struct {
				Success   bool   `json:"success"`
				UploadURL string `json:"uploadUrl"`
				Key       string `json:"key"`
			}
			json.Unmarshal(rec.Body.Bytes(), &body)
			if !body.Success || body.Key != tt.wantKey || !strings.Contains(body.UploadURL, tt.wantKey) {
				t.Errorf("body = %+v", body)
			}
			if store.expiry != PresignExpiry {
				t.Errorf("expiry = %v, want %v", store.expiry, PresignExpiry)
			}
		})
	}
}
