package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/audit"
	"gatehouse/internal/auth"
	"gatehouse/internal/models"
	"gatehouse/internal/rbac"
)

// Role, grant and assignment mutations invalidate the permission cache
// synchronously after the write: coarse invalidation over staleness.

func ListRoles(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := orgID(r)
		var roles []models.Role
		if err := db.Where("organization_id = ?", org).Order("priority desc, name").Find(&roles).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, roles)
	}
}

func CreateRole(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Slug     string `json:"slug"`
			Priority int    `json:"priority"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name == "" || req.Slug == "" {
			respondError(w, http.StatusBadRequest, "name and slug required")
			return
		}
		role := models.Role{
			OrganizationID: orgID(r),
			Name:           req.Name,
			Slug:           req.Slug,
			Priority:       req.Priority,
			IsActive:       true,
		}
		if err := db.Create(&role).Error; err != nil {
			respondError(w, http.StatusBadRequest, "role create failed")
			return
		}
		rec.Record(audit.EventRoleMutated, auth.Subject(r.Context()), map[string]any{"role": role.ID, "op": "create"})
		respondJSON(w, role)
	}
}

func UpdateRole(db *gorm.DB, cache *rbac.Cache, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Name     *string `json:"name"`
			Priority *int    `json:"priority"`
			IsActive *bool   `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var role models.Role
		if err := db.First(&role, "id = ? AND organization_id = ?", id, orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		// The slug is never updated: it is the identity grants refer to.
		if req.Name != nil {
			role.Name = *req.Name
		}
		if req.Priority != nil {
			role.Priority = *req.Priority
		}
		if req.IsActive != nil {
			role.IsActive = *req.IsActive
		}
		if err := db.Save(&role).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		cache.InvalidateAll()
		rec.Record(audit.EventRoleMutated, auth.Subject(r.Context()), map[string]any{"role": role.ID, "op": "update"})
		respondJSON(w, role)
	}
}

// DeleteRole deactivates; referenced roles are never hard-deleted.
func DeleteRole(db *gorm.DB, cache *rbac.Cache, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res := db.Model(&models.Role{}).
			Where("id = ? AND organization_id = ?", id, orgID(r)).
			Update("is_active", false)
		if res.Error != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if res.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		cache.InvalidateAll()
		rec.Record(audit.EventRoleMutated, auth.Subject(r.Context()), map[string]any{"role": id, "op": "deactivate"})
		respondJSON(w, map[string]any{"ok": true})
	}
}

func ListPermissions(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var perms []models.Permission
		if err := db.Order("slug").Find(&perms).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, perms)
	}
}

func CreatePermission(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Slug        string `json:"slug"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Slug == "" {
			respondError(w, http.StatusBadRequest, "slug required")
			return
		}
		perm := models.Permission{Slug: req.Slug, Description: req.Description}
		if err := db.Create(&perm).Error; err != nil {
			respondError(w, http.StatusBadRequest, "permission create failed")
			return
		}
		rec.Record(audit.EventGrantsMutated, auth.Subject(r.Context()), map[string]any{"permission": perm.Slug, "op": "create"})
		respondJSON(w, perm)
	}
}

// DeletePermission refuses while any role still references the permission.
// System-defined permissions are immutable.
func DeletePermission(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var perm models.Permission
		if err := db.First(&perm, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if perm.IsSystem {
			respondError(w, http.StatusConflict, "system permission")
			return
		}
		var refs int64
		if err := db.Model(&models.RolePermission{}).Where("permission_id = ?", id).Count(&refs).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if refs > 0 {
			respondError(w, http.StatusConflict, "permission is referenced by roles")
			return
		}
		if err := db.Delete(&perm).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		rec.Record(audit.EventGrantsMutated, auth.Subject(r.Context()), map[string]any{"permission": perm.Slug, "op": "delete"})
		respondJSON(w, map[string]any{"ok": true})
	}
}

// SetRolePermissions replaces the grant set of a role atomically.
func SetRolePermissions(db *gorm.DB, cache *rbac.Cache, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Permissions []string `json:"permissions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var role models.Role
		if err := db.First(&role, "id = ? AND organization_id = ?", id, orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		var perms []models.Permission
		if len(req.Permissions) > 0 {
			if err := db.Where("slug IN ?", req.Permissions).Find(&perms).Error; err != nil {
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if len(perms) != len(req.Permissions) {
				respondError(w, http.StatusBadRequest, "unknown permission slug")
				return
			}
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
				return err
			}
			for _, p := range perms {
				grant := models.RolePermission{RoleID: role.ID, PermissionID: p.ID, Granted: true}
				if err := tx.Create(&grant).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		cache.InvalidateAll()
		rec.Record(audit.EventGrantsMutated, auth.Subject(r.Context()), map[string]any{"role": role.ID, "permissions": req.Permissions})
		respondJSON(w, map[string]any{"ok": true})
	}
}

// AssignRole grants a role to a user, with an optional expiry.
func AssignRole(db *gorm.DB, cache *rbac.Cache, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string     `json:"user_id"`
			RoleID    string     `json:"role_id"`
			ExpiresAt *time.Time `json:"expires_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.UserID == "" || req.RoleID == "" {
			respondError(w, http.StatusBadRequest, "user_id and role_id required")
			return
		}
		var role models.Role
		if err := db.First(&role, "id = ? AND organization_id = ?", req.RoleID, orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "role not found")
			return
		}
		actor := auth.Subject(r.Context())
		assignment := models.RoleAssignment{
			UserID:     req.UserID,
			RoleID:     req.RoleID,
			AssignedBy: &actor,
			AssignedAt: time.Now(),
			ExpiresAt:  req.ExpiresAt,
			IsActive:   true,
		}
		if err := db.Create(&assignment).Error; err != nil {
			respondError(w, http.StatusBadRequest, "assignment failed")
			return
		}
		cache.Invalidate(req.UserID)
		rec.Record(audit.EventAssignmentMutated, actor, map[string]any{"user": req.UserID, "role": req.RoleID, "op": "assign"})
		respondJSON(w, assignment)
	}
}

func RemoveAssignment(db *gorm.DB, cache *rbac.Cache, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		roleID := chi.URLParam(r, "role_id")
		res := db.Model(&models.RoleAssignment{}).
			Where("user_id = ? AND role_id = ?", userID, roleID).
			Update("is_active", false)
		if res.Error != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if res.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		cache.Invalidate(userID)
		rec.Record(audit.EventAssignmentMutated, auth.Subject(r.Context()), map[string]any{"user": userID, "role": roleID, "op": "remove"})
		respondJSON(w, map[string]any{"ok": true})
	}
}

func orgID(r *http.Request) string {
	id, _ := auth.IdentityFromContext(r.Context())
	return id.OrganizationID
}
