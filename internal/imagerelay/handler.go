package imagerelay

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PresignExpiry is how long a direct-upload URL stays valid.
	PresignExpiry = 10 * time.Minute
	cacheControl  = "public, max-age=31536000, immutable"
)

// extensions maps image content types to the extension used for presigned keys.
var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
}

// Handler serves the image relay HTTP API.
type Handler struct {
	store  ObjectStore
	logger *zap.Logger
	newKey func() string
}

// NewHandler creates a Handler over store.
func NewHandler(store ObjectStore, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger, newKey: uuid.NewString}
}

// RegisterRoutes mounts the relay endpoints.
func RegisterRoutes(router gin.IRoutes, h *Handler) {
	router.GET("/", h.Health)
	router.POST("/api/images/upload", h.Upload)
	router.POST("/api/images/upload-url", h.UploadURL)
	router.GET("/api/images/:key", h.Serve)
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// Health handles GET /.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Help From Founder image relay is running"})
}

// Upload handles POST /api/images/upload with a multipart "file" field.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "multipart field \"file\" is required"})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !isImage(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "only image uploads are allowed"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read uploaded file"})
		return
	}
	defer f.Close()

	key := h.newKey() + strings.ToLower(filepath.Ext(fh.Filename))
	if err := h.store.Put(c.Request.Context(), key, f, fh.Size, contentType); err != nil {
		h.logger.Error("Image upload failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to store image"})
		return
	}
	h.logger.Info("Image stored", zap.String("key", key), zap.Int64("size", fh.Size), zap.String("contentType", contentType))
	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

// Serve handles GET /api/images/:key.
func (h *Handler) Serve(c *gin.Context) {
	key := c.Param("key")
	if key == "" || strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid key"})
		return
	}

	body, info, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "image not found"})
			return
		}
		h.logger.Error("Image fetch failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to fetch image"})
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, body, map[string]string{"Cache-Control": cacheControl})
}

type uploadURLRequest struct {
	FileType string `json:"fileType" binding:"required"`
}

// UploadURL handles POST /api/images/upload-url and returns a presigned PUT URL.
func (h *Handler) UploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "field \"fileType\" is required"})
		return
	}
	if !isImage(req.FileType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "only image uploads are allowed"})
		return
	}

	key := h.newKey() + extensions[strings.ToLower(req.FileType)]
	url, err := h.store.PresignPut(c.Request.Context(), key, PresignExpiry)
	if err != nil {
		h.logger.Error("Presign failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create upload URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "uploadUrl": url, "key": key})
}
