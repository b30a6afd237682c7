package auth

import "context"

type contextKey string

const claimsContextKey = contextKey("claims")

// WithClaims attaches parsed token claims to the request context.
func WithClaims(ctx context.Context, claims *AppClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims stored by the auth middleware.
func ClaimsFromContext(ctx context.Context) (*AppClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*AppClaims)
	return claims, ok
}
