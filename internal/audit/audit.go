package audit

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/models"
)

// Event kinds recorded by the auth and admin flows.
const (
	EventLoginSuccess        = "auth.login"
	EventLoginFailed         = "auth.login_failed"
	EventAccountLocked       = "auth.account_locked"
	EventTokenRefreshed      = "auth.token_refreshed"
	EventLogout              = "auth.logout"
	EventRegistered          = "auth.registered"
	EventPasswordChanged     = "auth.password_changed"
	EventPasswordResetSent   = "auth.password_reset_requested"
	EventPasswordReset       = "auth.password_reset"
	EventRoleMutated         = "rbac.role_mutated"
	EventGrantsMutated       = "rbac.grants_mutated"
	EventAssignmentMutated   = "rbac.assignment_mutated"
	EventVisitorCheckedIn    = "visit.checked_in"
	EventVisitorCheckedOut   = "visit.checked_out"
	EventWatchlistHit        = "visit.watchlist_hit"
)

// Recorder writes audit rows fire-and-forget: a failed write is logged
// locally and never surfaces to the caller.
type Recorder struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewRecorder(db *gorm.DB, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, lg: lg}
}

// Record persists one event. Safe on a nil recorder so wiring stays optional
// in tests.
func (r *Recorder) Record(action, actorID string, metadata map[string]any) {
	if r == nil || r.db == nil {
		return
	}
	var actor *string
	if actorID != "" {
		actor = &actorID
	}
	meta := models.JSONB("{}")
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = models.JSONB(b)
		}
	}
	entry := models.AuditLog{UserID: actor, Action: action, Metadata: meta}
	go func() {
		if err := r.db.Create(&entry).Error; err != nil && r.lg != nil {
			r.lg.Warnw("audit write failed", "action", action, "error", err)
		}
	}()
}
