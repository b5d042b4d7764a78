// Package requestctx carries the authenticated caller across request scope.
package requestctx

import (
	"context"
	"strings"
)

// User is the identity supplied by the external auth collaborator. It is
// treated as an immutable value for the lifetime of a request.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// Present reports whether the user carries an identifier.
func (u User) Present() bool {
	return strings.TrimSpace(u.ID) != ""
}

type userContextKey struct{}

// WithUser stores the caller in context.
func WithUser(ctx context.Context, user User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the caller stored in context and whether one was set.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(User)
	if !ok || !user.Present() {
		return User{}, false
	}
	return user, true
}

// UserIDFromContext returns the caller identifier stored in context.
func UserIDFromContext(ctx context.Context) string {
	user, _ := UserFromContext(ctx)
	return user.ID
}
