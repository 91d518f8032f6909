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

func ListAppointments(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Where("organization_id = ?", orgID(r))
		if status := r.URL.Query().Get("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		var appts []models.Appointment
		if err := q.Order("scheduled_at").Limit(200).Find(&appts).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, appts)
	}
}

func CreateAppointment(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			VisitorID   string    `json:"visitor_id"`
			HostID      *string   `json:"host_id"`
			ScheduledAt time.Time `json:"scheduled_at"`
			Notes       string    `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.VisitorID == "" || req.ScheduledAt.IsZero() {
			respondError(w, http.StatusBadRequest, "visitor_id and scheduled_at required")
			return
		}
		appt := models.Appointment{
			OrganizationID: orgID(r),
			VisitorID:      req.VisitorID,
			HostID:         req.HostID,
			ScheduledAt:    req.ScheduledAt,
			Status:         models.AppointmentStatusScheduled,
			Notes:          req.Notes,
		}
		if err := db.Create(&appt).Error; err != nil {
			respondError(w, http.StatusBadRequest, "appointment create failed")
			return
		}
		respondJSON(w, appt)
	}
}

func UpdateAppointment(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var appt models.Appointment
		if err := db.First(&appt, "id = ? AND organization_id = ?", chi.URLParam(r, "id"), orgID(r)).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		var req struct {
			ScheduledAt *time.Time `json:"scheduled_at"`
			Status      *string    `json:"status"`
			Notes       *string    `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.ScheduledAt != nil {
			appt.ScheduledAt = *req.ScheduledAt
		}
		if req.Status != nil {
			switch *req.Status {
			case models.AppointmentStatusScheduled, models.AppointmentStatusConfirmed,
				models.AppointmentStatusCancelled, models.AppointmentStatusCompleted:
				appt.Status = *req.Status
			default:
				respondError(w, http.StatusBadRequest, "unsupported status")
				return
			}
		}
		if req.Notes != nil {
			appt.Notes = *req.Notes
		}
		if err := db.Save(&appt).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, appt)
	}
}
