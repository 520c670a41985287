package ws

import "context"

// Identity is the authenticated player behind a connection. It is set once
// at handshake and never changes for the lifetime of the connection.
type Identity struct {
	UserID int64
	TgID   int64
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
