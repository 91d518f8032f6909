package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/auth"
	"gatehouse/internal/models"
	"gatehouse/internal/rbac"
)

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var users []models.User
		if err := db.Where("organization_id = ?", orgID(r)).Order("created_at desc").Find(&users).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, users)
	}
}

func CreateUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Email == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "email and password required")
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		u := models.User{
			OrganizationID:     orgID(r),
			Email:              req.Email,
			PasswordHash:       hash,
			IsActive:           true,
			MustChangePassword: true,
		}
		if err := db.Create(&u).Error; err != nil {
			respondError(w, http.StatusBadRequest, "user create failed")
			return
		}
		respondJSON(w, map[string]any{"id": u.ID})
	}
}

func UpdateUser(db *gorm.DB, cache *rbac.Cache, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Email    *string `json:"email"`
			IsActive *bool   `json:"is_active"`
			Password *string `json:"password,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var u models.User
		if err := db.First(&u, "id = ? AND organization_id = ?", id, orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}
			u.PasswordHash = hash
			u.MustChangePassword = true
		}
		if err := db.Save(&u).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		// Deactivation must bite before the next cache refresh.
		cache.Invalidate(u.ID)
		respondJSON(w, map[string]any{"updated": true})
	}
}

func DeleteUser(db *gorm.DB, cache *rbac.Cache, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res := db.Where("id = ? AND organization_id = ?", id, orgID(r)).Delete(&models.User{})
		if res.Error != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if res.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		cache.Invalidate(id)
		respondJSON(w, map[string]any{"deleted": true})
	}
}
