package auth

import (
	"context"
	"errors"
)

// ErrNoIdentity is returned by a Chain when no backend recognised the credentials
var ErrNoIdentity = errors.New("invalid registration number or password")

// Backend checks credentials against one account store.
// A nil identity with a nil error means "not mine, try the next backend".
type Backend interface {
	Authenticate(ctx context.Context, creds Credentials) (*Identity, error)
}

// BackendFunc adapts a function to Backend
type BackendFunc func(ctx context.Context, creds Credentials) (*Identity, error)

func (f BackendFunc) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	return f(ctx, creds)
}

// Chain tries each backend in order and returns the first identity
type Chain []Backend

// Authenticate walks the chain. Storage errors stop the walk.
func (c Chain) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	for _, b := range c {
		id, err := b.Authenticate(ctx, creds)
		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}
	return nil, ErrNoIdentity
}
