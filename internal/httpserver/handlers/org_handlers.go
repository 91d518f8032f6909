package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/models"
)

func GetOrganization(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var org models.Organization
		if err := db.First(&org, "id = ?", orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		respondJSON(w, org)
	}
}

func UpdateOrganization(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var org models.Organization
		if err := db.First(&org, "id = ?", orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		var req struct {
			Name     *string `json:"name"`
			Address  *string `json:"address"`
			Timezone *string `json:"timezone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name != nil {
			org.Name = *req.Name
		}
		if req.Address != nil {
			org.Address = *req.Address
		}
		if req.Timezone != nil {
			org.Timezone = *req.Timezone
		}
		if err := db.Save(&org).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, org)
	}
}

func ListEmployees(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var employees []models.Employee
		err := db.Where("organization_id = ? AND is_active = ?", orgID(r), true).
			Order("name").Limit(500).Find(&employees).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, employees)
	}
}

func CreateEmployee(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name       string `json:"name"`
			Email      string `json:"email"`
			Phone      string `json:"phone"`
			Department string `json:"department"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "name required")
			return
		}
		e := models.Employee{
			OrganizationID: orgID(r),
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Department:     req.Department,
			IsActive:       true,
		}
		if err := db.Create(&e).Error; err != nil {
			respondError(w, http.StatusBadRequest, "employee create failed")
			return
		}
		respondJSON(w, e)
	}
}

func UpdateEmployee(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e models.Employee
		if err := db.First(&e, "id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		var req struct {
			Name       *string `json:"name"`
			Email      *string `json:"email"`
			Phone      *string `json:"phone"`
			Department *string `json:"department"`
			IsActive   *bool   `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name != nil {
			e.Name = *req.Name
		}
		if req.Email != nil {
			e.Email = *req.Email
		}
		if req.Phone != nil {
			e.Phone = *req.Phone
		}
		if req.Department != nil {
			e.Department = *req.Department
		}
		if req.IsActive != nil {
			e.IsActive = *req.IsActive
		}
		if err := db.Save(&e).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, e)
	}
}
