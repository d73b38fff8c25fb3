package auth

import "context"

type contextKey struct{}

// WithIdentity attaches an authenticated user id to the request context.
func WithIdentity(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// IdentityFromContext reports the authenticated user id, if any. Anonymous
// requests carry no identity and return ok=false.
func IdentityFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok
}
