package contextutils

import "context"

// ContextKey namespaces values this module stores in a context.Context
type ContextKey string

// Context keys
const (
	UserIDKey    ContextKey = "userID"
	RequestIDKey ContextKey = "requestID"
)

// GetUserIDFromContext returns the authenticated user id, or 0 outside an authenticated request
func GetUserIDFromContext(ctx context.Context) int {
	if userID, ok := ctx.Value(UserIDKey).(int); ok {
		return userID
	}
	return 0
}

// WithUserID returns a new context with the user ID set
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithRequestID returns a new context carrying the request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestIDFromContext returns the request id, or "" when none was set
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
