package auth

import "context"

// contextKey is an unexported type for context keys in this package.
// A distinct type prevents collisions with keys from other packages.
type contextKey int

// claimsKey stores the authenticated Claims in the request context.
const claimsKey contextKey = iota

// ContextWithClaims returns a new context with the given Claims
// attached for retrieval with [ClaimsFromContext]. The middleware calls
// this after successful token validation.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves the Claims from the context. Returns the
// claims and true if present, or nil and false when no claims have been
// set.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// MustClaimsFromContext retrieves the Claims from the context,
// panicking when absent. Use only behind the authentication middleware,
// where claims are guaranteed to exist.
func MustClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		panic("auth: no claims in context; ensure authentication middleware is configured")
	}
	return claims
}
