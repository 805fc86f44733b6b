package auth

import (
	"context"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// UserFromContext returns the user the guard admitted the request for.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*user.User)
	return u, ok && u != nil
}

func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}
