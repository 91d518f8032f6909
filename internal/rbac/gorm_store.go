package rbac

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormStore implements Store over the role_assignments, roles,
// role_permissions and permissions tables.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListActiveAssignments(ctx context.Context, userID string) ([]Assignment, error) {
	var rows []Assignment
	err := s.db.WithContext(ctx).
		Table("role_assignments").
		Select("roles.id AS role_id, roles.name AS role_name, roles.slug AS role_slug").
		Joins("JOIN roles ON roles.id = role_assignments.role_id").
		Where("role_assignments.user_id = ?", userID).
		Where("role_assignments.is_active = ?", true).
		Where("roles.is_active = ?", true).
		Where("role_assignments.expires_at IS NULL OR role_assignments.expires_at > ?", time.Now()).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rbac: list active assignments: %w", err)
	}
	return rows, nil
}

func (s *GormStore) ListGrants(ctx context.Context, roleIDs []string) ([]Grant, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var rows []Grant
	err := s.db.WithContext(ctx).
		Table("role_permissions").
		Select("role_permissions.role_id AS role_id, permissions.slug AS permission_slug").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id IN ?", roleIDs).
		Where("role_permissions.granted = ?", true).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rbac: list grants: %w", err)
	}
	return rows, nil
}
