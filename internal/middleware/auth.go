// Package middleware provides authentication, request validation and recovery middleware for the Gin web framework.
package middleware

import (
	"context"
	"strings"

	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

const bearerScheme = "bearer"

// Authenticator resolves a bearer access token to an active user id.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (int, error)
}

// RequireAuth returns a middleware that requires a valid bearer access token
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			HandleAppError(c, contextutils.ErrUnauthorized)
			c.Abort()
			return
		}

		userID, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			HandleAppError(c, err)
			c.Abort()
			return
		}

		ctx := contextutils.WithUserID(c.Request.Context(), userID)
		trace.SpanFromContext(ctx).SetAttributes(observability.AttributeUserID(userID))
		c.Request = c.Request.WithContext(ctx)
		c.Set(UserIDKey, userID)

		c.Next()
	}
}

// GetUserID returns the user id stored by RequireAuth.
func GetUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok && userID > 0
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
