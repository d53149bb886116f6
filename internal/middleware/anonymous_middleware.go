package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"help-from-founder-go/internal/anonid"
	"help-from-founder-go/internal/models"
)

const (
	// DeviceCookie scopes the anonymous identity to one browser.
	DeviceCookie = "hff_device"

	contextAnonGenerator = "anonGenerator"

	deviceCookieMaxAge = 365 * 24 * 60 * 60
)

// AnonymousIdentity ensures every request carries a device cookie and makes
// an anonymous identity generator for that device available to handlers.
// Nothing is read from storage until a handler asks for the identity.
func AnonymousIdentity(storage anonid.StorageFactory, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID, err := c.Cookie(DeviceCookie)
		if err != nil || uuid.Validate(deviceID) != nil {
			deviceID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(DeviceCookie, deviceID, deviceCookieMaxAge, "/", "", secureCookie, true)
		}
		c.Set(contextAnonGenerator, anonid.New(storage(deviceID)))
		c.Next()
	}
}

// AnonymousIdentityOf returns the anonymous identity bound to the device
// cookie. The public anonymous id is not a credential, so nothing the client
// sends besides the cookie can select an identity.
func AnonymousIdentityOf(c *gin.Context) (anonid.Identity, bool, error) {
	v, ok := c.Get(contextAnonGenerator)
	if !ok {
		return anonid.Identity{}, false, nil
	}
	ident, err := v.(*anonid.Generator).Identity(c.Request.Context())
	if err != nil {
		return anonid.Identity{}, false, err
	}
	return ident, true, nil
}

// IdentityOf returns the acting identity: the signed-in user when the auth
// middleware verified a token, otherwise the device's anonymous identity.
func IdentityOf(c *gin.Context) (models.Identity, error) {
	if uid := c.GetString(ContextUserID); uid != "" {
		return models.Identity{
			UserID:      uid,
			Email:       c.GetString(ContextUserEmail),
			DisplayName: c.GetString(ContextDisplayName),
		}, nil
	}
	anon, ok, err := AnonymousIdentityOf(c)
	if err != nil || !ok {
		return models.Identity{}, err
	}
	return models.Identity{AnonymousID: anon.ID, DisplayName: anon.Name}, nil
}
