package auth

import (
	"context"

	"prepvault/internal/models"
)

type ctxKey string

const userKey ctxKey = "currentUser"

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser returns the authenticated user attached by JWTAuth, or nil.
func CurrentUser(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

func UserID(ctx context.Context) string {
	if u := CurrentUser(ctx); u != nil {
		return u.ID
	}
	return ""
}
