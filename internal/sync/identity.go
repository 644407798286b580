package sync

import (
	"context"

	"github.com/equipview/equipview/internal/domain"
)

// Identity is the caller identity carried explicitly in the context of
// every manager call; there is no implicit current-user state.
type Identity struct {
	UserID int64
	Role   string
}

func (i Identity) Admin() bool {
	return i.Role == domain.UserRoleAdmin
}

// SystemIdentity is used by background jobs and seeding.
var SystemIdentity = Identity{UserID: 0, Role: domain.UserRoleAdmin}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
