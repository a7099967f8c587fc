package auth

import (
	"context"
	"time"
)

// Identity is the signed-in user behind a request.
type Identity struct {
	UserID uint64
	Email  string
	// ExpiresAt is the expiry of the bearer token, zero when unknown.
	ExpiresAt time.Time
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}
