package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/audit"
	"gatehouse/internal/auth"
	"gatehouse/internal/models"
)

func ListVisits(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Where("organization_id = ?", orgID(r))
		if status := r.URL.Query().Get("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		var visits []models.Visit
		if err := q.Order("created_at desc").Limit(200).Find(&visits).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, visits)
	}
}

func CreateVisit(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			VisitorID string  `json:"visitor_id"`
			HostID    *string `json:"host_id"`
			Purpose   string  `json:"purpose"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.VisitorID == "" {
			respondError(w, http.StatusBadRequest, "visitor_id required")
			return
		}
		var visitor models.Visitor
		if err := db.First(&visitor, "id = ? AND organization_id = ?", req.VisitorID, orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "visitor not found")
			return
		}
		visit := models.Visit{
			OrganizationID: orgID(r),
			VisitorID:      req.VisitorID,
			HostID:         req.HostID,
			Purpose:        req.Purpose,
			Status:         models.VisitStatusExpected,
		}
		if err := db.Create(&visit).Error; err != nil {
			respondError(w, http.StatusBadRequest, "visit create failed")
			return
		}
		respondJSON(w, visit)
	}
}

// CheckIn transitions expected -> checked_in, screens the visitor against
// the watchlist and appends a gate access log entry.
func CheckIn(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Gate string `json:"gate"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		var visit models.Visit
		if err := db.First(&visit, "id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if visit.Status != models.VisitStatusExpected {
			respondError(w, http.StatusConflict, "visit is not expected")
			return
		}
		var visitor models.Visitor
		if err := db.First(&visitor, "id = ?", visit.VisitorID).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		now := time.Now()
		visit.Status = models.VisitStatusCheckedIn
		visit.CheckInAt = &now
		visit.BadgeNumber = "B-" + strings.ToUpper(uuid.NewString()[:8])

		fullName := visitor.FirstName + " " + visitor.LastName
		var hits int64
		err := db.Model(&models.WatchlistEntry{}).
			Where("organization_id = ? AND is_active = ? AND LOWER(full_name) = LOWER(?)", visit.OrganizationID, true, fullName).
			Count(&hits).Error
		if err != nil {
			lg.Warnw("watchlist screening failed", "visit", visit.ID, "error", err)
		}
		if hits > 0 {
			visit.WatchlistHit = true
			rec.Record(audit.EventWatchlistHit, auth.Subject(r.Context()), map[string]any{"visit": visit.ID, "visitor": visitor.ID})
		}

		if err := db.Save(&visit).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		entry := models.AccessLog{
			OrganizationID: visit.OrganizationID,
			VisitID:        visit.ID,
			Direction:      "in",
			Gate:           req.Gate,
			OccurredAt:     now,
		}
		if err := db.Create(&entry).Error; err != nil {
			lg.Warnw("access log write failed", "visit", visit.ID, "error", err)
		}
		rec.Record(audit.EventVisitorCheckedIn, auth.Subject(r.Context()), map[string]any{"visit": visit.ID})
		respondJSON(w, visit)
	}
}

func CheckOut(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Gate string `json:"gate"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		var visit models.Visit
		if err := db.First(&visit, "id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if visit.Status != models.VisitStatusCheckedIn {
			respondError(w, http.StatusConflict, "visit is not checked in")
			return
		}
		now := time.Now()
		visit.Status = models.VisitStatusCheckedOut
		visit.CheckOutAt = &now
		if err := db.Save(&visit).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		entry := models.AccessLog{
			OrganizationID: visit.OrganizationID,
			VisitID:        visit.ID,
			Direction:      "out",
			Gate:           req.Gate,
			OccurredAt:     now,
		}
		if err := db.Create(&entry).Error; err != nil {
			lg.Warnw("access log write failed", "visit", visit.ID, "error", err)
		}
		rec.Record(audit.EventVisitorCheckedOut, auth.Subject(r.Context()), map[string]any{"visit": visit.ID})
		respondJSON(w, visit)
	}
}

func ListAccessLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Where("organization_id = ?", orgID(r))
		if visitID := r.URL.Query().Get("visit_id"); visitID != "" {
			q = q.Where("visit_id = ?", visitID)
		}
		var logs []models.AccessLog
		if err := q.Order("occurred_at desc").Limit(500).Find(&logs).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, logs)
	}
}
