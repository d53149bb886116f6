package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	ContextUserID       = "userID"
	ContextUserEmail    = "userEmail"
	ContextDisplayName  = "userDisplayName"
	ContextUserPhotoURL = "userPhotoURL"
)

// ErrorResponse mirrors api.ErrorResponse; it is redeclared here to avoid an
// import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier verifies identity-provider ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// bearerToken extracts the ID token from the Authorization header, falling
// back to the token query parameter browsers must use for WebSocket upgrades.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", true
}

// authenticate verifies the token, if any, and stores its claims in the
// context. It reports false after aborting the request.
func (m *AuthMiddleware) authenticate(c *gin.Context, required bool) bool {
	idToken, ok := bearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
		return false
	}
	if idToken == "" {
		if required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return false
		}
		return true
	}

	token, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken)
	if err != nil {
		m.logger.Debug("ID token rejected", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
		return false
	}

	c.Set(ContextUserID, token.UID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set(ContextUserEmail, email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		c.Set(ContextDisplayName, name)
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		c.Set(ContextUserPhotoURL, picture)
	}
	return true
}

// RequireAuth rejects requests without a valid ID token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authenticate(c, true) {
			c.Next()
		}
	}
}

// OptionalAuth accepts anonymous requests but still rejects a malformed or
// invalid token, so a signed-in visitor is never silently treated as
// anonymous.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authenticate(c, false) {
			c.Next()
		}
	}
}
