package auth

import "context"

type ctxKey string

const identityKey ctxKey = "authIdentity"

// Identity is the authenticated caller, resolved once per request by the
// Authenticate middleware and consumed by every downstream gate.
type Identity struct {
	UserID         string
	Email          string
	OrganizationID string
	Roles          []string
}

func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	if !ok || v.UserID == "" {
		return Identity{}, false
	}
	return v, true
}

// Subject returns the authenticated user ID, or "" if unauthenticated.
func Subject(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}
