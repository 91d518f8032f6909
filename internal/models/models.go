package models

import "time"

// Token record kinds. Persisted as plain strings so the table stays
// readable in psql.
const (
	TokenKindAccess            = "access"
	TokenKindRefresh           = "refresh"
	TokenKindPasswordReset     = "password_reset"
	TokenKindEmailVerification = "email_verification"
	TokenKindMFA               = "mfa"
)

// User is a system account able to authenticate. Visitors never get one.
type User struct {
	ID                  string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID      string     `gorm:"type:uuid;index;not null" json:"organization_id"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash        string     `gorm:"not null" json:"-"`
	IsActive            bool       `gorm:"not null;default:true" json:"is_active"`
	FailedLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	MustChangePassword  bool       `gorm:"not null;default:false" json:"must_change_password"`
	MFAEnabled          bool       `gorm:"not null;default:false" json:"mfa_enabled"`
	MFASecret           string     `json:"-"`
	LastActivityAt      *time.Time `json:"last_activity_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Role is a tenant-scoped bundle of permissions. Roles are soft-deleted via
// IsActive once referenced; Priority is a tie-break weight reserved for
// future precedence rules.
type Role struct {
	ID             string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:uuid;not null;uniqueIndex:idx_org_role_slug" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Slug           string    `gorm:"not null;uniqueIndex:idx_org_role_slug" json:"slug"`
	Priority       int       `gorm:"not null;default:0" json:"priority"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Permission is a global resource:action capability. The slug is the
// identity; it never changes once a grant or assignment references it.
type Permission struct {
	ID          string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleAssignment links a user to a role. An inactive or expired row
// contributes no permissions even though it remains for audit.
type RoleAssignment struct {
	ID         string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_role" json:"user_id"`
	RoleID     string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_role" json:"role_id"`
	AssignedBy *string    `gorm:"type:uuid" json:"assigned_by,omitempty"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
}

// RolePermission grants a permission to a role. Granted is always true
// today; the column exists for explicit-deny semantics later.
type RolePermission struct {
	RoleID       string `gorm:"type:uuid;primaryKey" json:"role_id"`
	PermissionID string `gorm:"type:uuid;primaryKey" json:"permission_id"`
	Granted      bool   `gorm:"not null;default:true" json:"granted"`
}

// TokenRecord stores the sha256 of an issued token, never the token itself.
type TokenRecord struct {
	ID         string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     string     `gorm:"type:uuid;index;not null" json:"user_id"`
	Kind       string     `gorm:"size:32;index;not null" json:"kind"`
	TokenHash  string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	Device     string     `json:"device,omitempty"`
	IP         string     `json:"ip,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string    `gorm:"not null" json:"action"`
	Metadata  JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
