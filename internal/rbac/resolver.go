package rbac

import (
	"context"
	"fmt"
	"sort"
)

// PermissionSet is an unordered membership set of permission slugs.
type PermissionSet map[string]struct{}

func (s PermissionSet) Has(slug string) bool {
	_, ok := s[slug]
	return ok
}

// Slugs returns the set as a sorted slice, for responses and logs.
func (s PermissionSet) Slugs() []string {
	out := make([]string, 0, len(s))
	for slug := range s {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Resolver computes effective permissions: the union of granted slugs across
// all of a user's active role assignments. Pure read, no side effects.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (PermissionSet, error) {
	assignments, err := r.store.ListActiveAssignments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	set := make(PermissionSet)
	if len(assignments) == 0 {
		return set, nil
	}
	seen := make(map[string]struct{}, len(assignments))
	roleIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.RoleID]; ok {
			continue
		}
		seen[a.RoleID] = struct{}{}
		roleIDs = append(roleIDs, a.RoleID)
	}
	grants, err := r.store.ListGrants(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	for _, g := range grants {
		set[g.PermissionSlug] = struct{}{}
	}
	return set, nil
}
