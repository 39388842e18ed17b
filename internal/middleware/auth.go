package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// IdentityResolver turns a credential into an active user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*models.User, error)
	ResolveUserID(ctx context.Context, userID uint64) (*models.User, error)
}

// RequireAuth authenticates the request with a bearer token, falling back to
// the session cookie set at login when no Authorization header is sent.
func RequireAuth(resolver IdentityResolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c, resolver)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				log.DebugContext(c.Request.Context(), "authentication rejected", "error", err)
				apierrors.Unauthorized(c, "Could not validate credentials")
			} else {
				log.ErrorContext(c.Request.Context(), "authentication failed", "error", err)
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		// Store user in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

func authenticate(c *gin.Context, resolver IdentityResolver) (*models.User, error) {
	ctx := c.Request.Context()

	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return nil, services.ErrUnauthenticated
		}
		return resolver.ResolveIdentity(ctx, strings.TrimSpace(token))
	}

	session := sessions.Default(c)
	userID, ok := sessionUserID(session.Get(constants.ContextKeyUserID))
	if !ok {
		return nil, services.ErrUnauthenticated
	}
	return resolver.ResolveUserID(ctx, userID)
}

func sessionUserID(v any) (uint64, bool) {
	switch id := v.(type) {
	case uint64:
		return id, true
	case uint:
		return uint64(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	default:
		return 0, false
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return sessionUserID(userID)
}

// GetCurrentUser retrieves the authenticated user from context
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
