package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/auth"
	"gatehouse/internal/models"
)

func ListIncidents(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Where("organization_id = ?", orgID(r))
		if status := r.URL.Query().Get("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		var incidents []models.Incident
		if err := q.Order("created_at desc").Limit(200).Find(&incidents).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, incidents)
	}
}

func CreateIncident(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			VisitID     *string `json:"visit_id"`
			Severity    string  `json:"severity"`
			Description string  `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Severity == "" || req.Description == "" {
			respondError(w, http.StatusBadRequest, "severity and description required")
			return
		}
		reporter := auth.Subject(r.Context())
		inc := models.Incident{
			OrganizationID: orgID(r),
			VisitID:        req.VisitID,
			Severity:       req.Severity,
			Description:    req.Description,
			Status:         models.IncidentStatusOpen,
		}
		if reporter != "" {
			inc.ReportedBy = &reporter
		}
		if err := db.Create(&inc).Error; err != nil {
			respondError(w, http.StatusBadRequest, "incident create failed")
			return
		}
		respondJSON(w, inc)
	}
}

func ResolveIncident(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var inc models.Incident
		if err := db.First(&inc, "id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if inc.Status == models.IncidentStatusResolved {
			respondError(w, http.StatusConflict, "incident already resolved")
			return
		}
		inc.Status = models.IncidentStatusResolved
		if err := db.Save(&inc).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, inc)
	}
}

func ListWatchlist(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []models.WatchlistEntry
		err := db.Where("organization_id = ? AND is_active = ?", orgID(r), true).
			Order("full_name").Find(&entries).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, entries)
	}
}

func CreateWatchlistEntry(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FullName string `json:"full_name"`
			Reason   string `json:"reason"`
			Level    string `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.FullName == "" {
			respondError(w, http.StatusBadRequest, "full_name required")
			return
		}
		if req.Level == "" {
			req.Level = "watch"
		}
		entry := models.WatchlistEntry{
			OrganizationID: orgID(r),
			FullName:       req.FullName,
			Reason:         req.Reason,
			Level:          req.Level,
			IsActive:       true,
		}
		if err := db.Create(&entry).Error; err != nil {
			respondError(w, http.StatusBadRequest, "watchlist create failed")
			return
		}
		respondJSON(w, entry)
	}
}

func DeleteWatchlistEntry(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := db.Model(&models.WatchlistEntry{}).
			Where("id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).
			Update("is_active", false)
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
