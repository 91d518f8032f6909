package auth

import (
	"context"
	"time"

	"gatehouse/internal/models"
)

// AccountStore is the account data access the flows consume.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateCredential(ctx context.Context, userID, passwordHash string) error
	UpdateLockout(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error
	UpdateActivity(ctx context.Context, userID string) error
}

// TokenRecordStore manages persisted token hashes.
type TokenRecordStore interface {
	Insert(ctx context.Context, rec *models.TokenRecord) error
	FindActiveByHash(ctx context.Context, hash string) (*models.TokenRecord, error)
	MarkUsed(ctx context.Context, id string) error
	MarkRevoked(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID, kind string) error
	Touch(ctx context.Context, id string) error
}
