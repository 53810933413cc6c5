// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them; services read them. Keeping
// this package free of net/http lets services consume identity and timing
// without importing transport code, and lets tests inject fixed values.
package requestcontext

import (
	"context"
	"time"

	id "tenantgate/pkg/domain"
)

type (
	userIDKey      struct{}
	roleKey        struct{}
	tokenIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Role retrieves the caller's role. Defaults to RoleUser when absent so a
// missing claim can never widen access.
func Role(ctx context.Context) id.Role {
	if role, ok := ctx.Value(roleKey{}).(id.Role); ok && role.IsValid() {
		return role
	}
	return id.RoleUser
}

func WithRole(ctx context.Context, role id.Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// TokenID retrieves the JWT ID (jti) of the presented access token. Used by
// logout to revoke exactly the presented token.
func TokenID(ctx context.Context) string {
	if jti, ok := ctx.Value(tokenIDKey{}).(string); ok {
		return jti
	}
	return ""
}

func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, tokenIDKey{}, jti)
}

// RequestID retrieves the correlation ID assigned by the request-id
// middleware, or "" outside a request.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped clock, falling back to time.Now. Services
// read creation and decision timestamps through this so tests can freeze time.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
