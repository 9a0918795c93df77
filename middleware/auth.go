package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gamelog/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const identityKey = "identity"

// Authenticator verifies bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(a Authenticator, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		id, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				return
			}
			log.WithError(err).Error("authenticate request")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication unavailable"})
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuthenticate attaches the caller when a valid token is sent
// and lets anonymous requests through otherwise.
func OptionalAuthenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if id, err := a.Authenticate(c.Request.Context(), token); err == nil {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller set by Authenticate.
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func setIdentity(c *gin.Context, id auth.Identity) {
	c.Set(identityKey, id)
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
