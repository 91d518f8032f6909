package models

import "time"

// Visit lifecycle.
const (
	VisitStatusExpected   = "expected"
	VisitStatusCheckedIn  = "checked_in"
	VisitStatusCheckedOut = "checked_out"
	VisitStatusCancelled  = "cancelled"
)

const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusCompleted = "completed"
)

const (
	IncidentStatusOpen     = "open"
	IncidentStatusResolved = "resolved"
)

type Organization struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	Address   string    `json:"address,omitempty"`
	Timezone  string    `gorm:"not null;default:UTC" json:"timezone"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Employee is a host record, not a system account.
type Employee struct {
	ID             string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"index" json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Department     string    `json:"department,omitempty"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Visitor struct {
	ID             string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:uuid;index;not null" json:"organization_id"`
	FirstName      string    `gorm:"not null" json:"first_name"`
	LastName       string    `gorm:"not null" json:"last_name"`
	Email          string    `gorm:"index" json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Visit struct {
	ID             string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string     `gorm:"type:uuid;index;not null" json:"organization_id"`
	VisitorID      string     `gorm:"type:uuid;index;not null" json:"visitor_id"`
	HostID         *string    `gorm:"type:uuid" json:"host_id,omitempty"`
	Purpose        string     `json:"purpose,omitempty"`
	Status         string     `gorm:"size:32;not null;default:expected" json:"status"`
	BadgeNumber    string     `json:"badge_number,omitempty"`
	WatchlistHit   bool       `gorm:"not null;default:false" json:"watchlist_hit"`
	CheckInAt      *time.Time `json:"check_in_at,omitempty"`
	CheckOutAt     *time.Time `json:"check_out_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Appointment struct {
	ID             string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:uuid;index;not null" json:"organization_id"`
	VisitorID      string    `gorm:"type:uuid;index;not null" json:"visitor_id"`
	HostID         *string   `gorm:"type:uuid" json:"host_id,omitempty"`
	ScheduledAt    time.Time `gorm:"not null" json:"scheduled_at"`
	Status         string    `gorm:"size:32;not null;default:scheduled" json:"status"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type AccessLog struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string    `gorm:"type:uuid;index;not null" json:"organization_id"`
	VisitID        string    `gorm:"type:uuid;index;not null" json:"visit_id"`
	Direction      string    `gorm:"size:8;not null" json:"direction"` // in | out
	Gate           string    `json:"gate,omitempty"`
	OccurredAt     time.Time `gorm:"not null" json:"occurred_at"`
}

type Document struct {
	ID             string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string     `gorm:"type:uuid;index;not null" json:"organization_id"`
	VisitorID      string     `gorm:"type:uuid;index;not null" json:"visitor_id"`
	Kind           string     `gorm:"not null" json:"kind"`
	FileURL        string     `gorm:"not null" json:"file_url"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Incident struct {
	ID             string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:uuid;index;not null" json:"organization_id"`
	VisitID        *string   `gorm:"type:uuid" json:"visit_id,omitempty"`
	ReportedBy     *string   `gorm:"type:uuid" json:"reported_by,omitempty"`
	Severity       string    `gorm:"size:16;not null" json:"severity"`
	Description    string    `gorm:"not null" json:"description"`
	Status         string    `gorm:"size:32;not null;default:open" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type WatchlistEntry struct {
	ID             string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:uuid;index;not null" json:"organization_id"`
	FullName       string    `gorm:"not null;index" json:"full_name"`
	Reason         string    `json:"reason,omitempty"`
	Level          string    `gorm:"size:16;not null;default:watch" json:"level"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
