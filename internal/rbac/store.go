package rbac

import "context"

// Assignment is an active role held by a user, flattened with the role
// attributes the gates need.
type Assignment struct {
	RoleID   string
	RoleName string
	RoleSlug string
}

// Grant is a granted permission slug for a role.
type Grant struct {
	RoleID         string
	PermissionSlug string
}

// Store is the role/permission data access the resolver consumes. An
// implementation must only return assignments that are active, unexpired and
// attached to an active role, and only grants with granted=true.
type Store interface {
	ListActiveAssignments(ctx context.Context, userID string) ([]Assignment, error)
	ListGrants(ctx context.Context, roleIDs []string) ([]Grant, error)
}
