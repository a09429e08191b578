package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller as known internally. It is attached to
// the request context by the auth middleware and consumed by the proxy
// boundary, which records it in the audit store but never forwards it.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id := IdentityFromContext(ctx); id != nil {
		return id.UserID
	}
	return uuid.Nil
}
