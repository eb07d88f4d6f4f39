package auth

import (
	"context"

	"github.com/nexboard/nexboard/internal/user"
)

type userKey struct{}

func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the acting user, or nil outside an authenticated
// request.
func UserFromContext(ctx context.Context) *user.User {
	if u, ok := ctx.Value(userKey{}).(*user.User); ok {
		return u
	}
	return nil
}
