package auth

import "context"

// Kind tells which account table an identity was loaded from
type Kind string

const (
	KindVoter   Kind = "voter"
	KindStudent Kind = "student"
)

// Identity is the authenticated principal carried by a session
type Identity struct {
	Kind    Kind   `json:"kind"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	RegNo   string `json:"regNo"`
	Email   string `json:"email"`
	IsStaff bool   `json:"isStaff"`
}

// Credentials is what a login form submits. Identifier is a registration number or an email.
type Credentials struct {
	Identifier string
	Password   string
}

type identityKey struct{}

// WithIdentity stores id in ctx
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, or nil
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// Actor names the identity for audit entries
func (i *Identity) Actor() string {
	if i == nil {
		return "system"
	}
	return i.RegNo
}
