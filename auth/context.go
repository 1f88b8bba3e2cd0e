package auth

import (
	"context"
)

// contextKey is unexported so no other package can collide with our context values.
type contextKey string

const principalContextKey contextKey = "auth_principal"

// Principal is the authenticated caller of a request. A nil *Principal means anonymous.
// It is threaded explicitly into every service call instead of being read from
// request-global state.
type Principal struct {
	UserID  int64
	IsStaff bool
}

// ID returns the caller's user id, or nil for anonymous callers. Services take a *int64
// viewer id so the anonymous case is explicit in their signatures.
func (p *Principal) ID() *int64 {
	if p == nil {
		return nil
	}
	id := p.UserID
	return &id
}

// NewContextWithPrincipal stores p in ctx.
func NewContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the caller stored by JWTMiddleware, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}

// GetUserIDFromContext returns the caller's id and whether the request is authenticated.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return 0, false
	}
	return p.UserID, true
}
