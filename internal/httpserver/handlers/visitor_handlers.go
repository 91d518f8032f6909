package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/models"
)

func ListVisitors(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Where("organization_id = ?", orgID(r))
		if search := r.URL.Query().Get("q"); search != "" {
			like := "%" + search + "%"
			q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR company ILIKE ?", like, like, like)
		}
		var visitors []models.Visitor
		if err := q.Order("created_at desc").Limit(200).Find(&visitors).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, visitors)
	}
}

func GetVisitor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v models.Visitor
		if err := db.First(&v, "id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		respondJSON(w, v)
	}
}

func CreateVisitor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Email     string `json:"email"`
			Phone     string `json:"phone"`
			Company   string `json:"company"`
			PhotoURL  string `json:"photo_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.FirstName == "" || req.LastName == "" {
			respondError(w, http.StatusBadRequest, "first_name and last_name required")
			return
		}
		v := models.Visitor{
			OrganizationID: orgID(r),
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			Phone:          req.Phone,
			Company:        req.Company,
			PhotoURL:       req.PhotoURL,
		}
		if err := db.Create(&v).Error; err != nil {
			respondError(w, http.StatusBadRequest, "visitor create failed")
			return
		}
		respondJSON(w, v)
	}
}

func UpdateVisitor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v models.Visitor
		if err := db.First(&v, "id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		var req struct {
			FirstName *string `json:"first_name"`
			LastName  *string `json:"last_name"`
			Email     *string `json:"email"`
			Phone     *string `json:"phone"`
			Company   *string `json:"company"`
			PhotoURL  *string `json:"photo_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.FirstName != nil {
			v.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			v.LastName = *req.LastName
		}
		if req.Email != nil {
			v.Email = *req.Email
		}
		if req.Phone != nil {
			v.Phone = *req.Phone
		}
		if req.Company != nil {
			v.Company = *req.Company
		}
		if req.PhotoURL != nil {
			v.PhotoURL = *req.PhotoURL
		}
		if err := db.Save(&v).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, v)
	}
}

func DeleteVisitor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := db.Where("id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Delete(&models.Visitor{})
		if res.Error != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if res.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

func ListVisitorDocuments(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var docs []models.Document
		err := db.Where("visitor_id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).
			Order("created_at desc").Find(&docs).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, docs)
	}
}

func AddVisitorDocument(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind      string     `json:"kind"`
			FileURL   string     `json:"file_url"`
			ExpiresAt *time.Time `json:"expires_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Kind == "" || req.FileURL == "" {
			respondError(w, http.StatusBadRequest, "kind and file_url required")
			return
		}
		doc := models.Document{
			OrganizationID: orgID(r),
			VisitorID:      chi.URLParam(r, "id"),
			Kind:           req.Kind,
			FileURL:        req.FileURL,
			ExpiresAt:      req.ExpiresAt,
		}
		if err := db.Create(&doc).Error; err != nil {
			respondError(w, http.StatusBadRequest, "document create failed")
			return
		}
		respondJSON(w, doc)
	}
}
