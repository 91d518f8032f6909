package auth

import (
	"errors"
	"strings"
)

// Error taxonomy. Authentication failures stay deliberately generic toward
// the caller; authorization failures name what is missing.
var (
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrCredentialFormat   = errors.New("auth: malformed credential hash")
	ErrConfiguration      = errors.New("auth: signing secret is not configured")
	ErrNotFound           = errors.New("auth: not found")
)

// ForbiddenError is returned when an authenticated identity lacks the
// required permissions or roles.
type ForbiddenError struct {
	Missing       []string
	Required      []string
	RequiredRoles []string
}

func (e *ForbiddenError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return "auth: forbidden, missing " + strings.Join(e.Missing, ", ")
	case len(e.RequiredRoles) > 0:
		return "auth: forbidden, requires role " + strings.Join(e.RequiredRoles, ", ")
	case len(e.Required) > 0:
		return "auth: forbidden, requires one of " + strings.Join(e.Required, ", ")
	}
	return "auth: forbidden"
}
