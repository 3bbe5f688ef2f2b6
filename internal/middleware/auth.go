package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/metrics"
	"github.com/loomline/backend/internal/models"
)

// IdentityResolver resolves a verified subject handle to a full identity.
// Satisfied by *auth.Service; the indirection keeps the middleware testable
// without a database.
type IdentityResolver interface {
	FindByHandle(handle string) (*models.User, error)
}

// Authenticate validates the bearer credential on every request that passes
// through it, exactly once, before any handler runs. On success it attaches
// the resolved identity to the request context as "user" and "user_id"; on
// any failure (missing token, bad signature, expiry, unknown subject) the
// request is aborted with 401 and never reaches a handler. There is no
// in-band refresh: callers retry with a fresh token from the login flow.
func Authenticate(codec *auth.TokenCodec, identities IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			reject(c, "unauthenticated")
			return
		}

		handle, err := codec.Verify(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				reject(c, "token_expired")
			} else {
				reject(c, "invalid_token")
			}
			return
		}

		// One identity lookup per authenticated request, never cached
		// across requests
		user, err := identities.FindByHandle(handle)
		if err != nil {
			reject(c, "unknown_subject")
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// OptionalAuth attaches an identity when a valid credential happens to be
// present, and continues anonymously otherwise. Used on public listings so
// enrichment can still personalize for logged-in viewers.
func OptionalAuth(codec *auth.TokenCodec, identities IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		handle, err := codec.Verify(tokenString)
		if err != nil {
			c.Next()
			return
		}

		if user, err := identities.FindByHandle(handle); err == nil {
			c.Set("user", user)
			c.Set("user_id", user.ID)
		}
		c.Next()
	}
}

// RequireAdmin ensures the authenticated user (set by Authenticate) has the
// admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		user, ok := userVal.(*models.User)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user_context"})
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin_access_required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// reject aborts the request with 401 and records the rejection reason.
func reject(c *gin.Context, reason string) {
	metrics.Get().AuthRejectionsTotal.WithLabelValues(reason).Inc()
	c.JSON(http.StatusUnauthorized, gin.H{"error": reason})
	c.Abort()
}

// bearerToken extracts the credential from the Authorization header. Both
// "Bearer <token>" and a bare token are accepted; clients send both.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
