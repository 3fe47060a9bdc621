package auth

import (
	"context"

	"taskboard/pkg/models"
	"taskboard/pkg/taskerr"
)

type contextKey struct{}

var userKey contextKey

// WithUser binds the authenticated user to the request context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser resolves the caller's identity. It fails with
// taskerr.ErrUnauthenticated when no identity is bound.
func CurrentUser(ctx context.Context) (models.User, error) {
	user, ok := ctx.Value(userKey).(models.User)
	if !ok {
		return models.User{}, taskerr.ErrUnauthenticated
	}
	return user, nil
}
