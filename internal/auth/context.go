package auth

import (
	"context"
)

type ctxKey int

const ctxIdentity ctxKey = iota

// ginIdentityKey mirrors the identity on the gin context for handler convenience.
const ginIdentityKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

// IdentityFrom returns the resolved caller, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

// UserID returns the caller id or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := IdentityFrom(ctx)
	return id.ID
}
