package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/models"
)

// ListAuditLogs returns recent audit entries, newest first. Filterable by
// actor and action.
func ListAuditLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Model(&models.AuditLog{})
		if userID := r.URL.Query().Get("user_id"); userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		if action := r.URL.Query().Get("action"); action != "" {
			q = q.Where("action = ?", action)
		}
		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		var logs []models.AuditLog
		if err := q.Order("id desc").Limit(limit).Find(&logs).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, logs)
	}
}
