package middleware

import "context"

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxEmail  contextKey = "user_email"
)

// UserIDFromContext returns the authenticated user's ID, or "" on
// unauthenticated requests.
func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

// EmailFromContext returns the authenticated user's email, or "".
func EmailFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxEmail)
}

// WithUserID injects the user identifier into the context. Tests use it
// to simulate an authenticated request without running Auth.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
