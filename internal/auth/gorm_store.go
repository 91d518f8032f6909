package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gatehouse/internal/models"
)

// GormAccountStore implements AccountStore over the users table.
type GormAccountStore struct {
	db *gorm.DB
}

func NewGormAccountStore(db *gorm.DB) *GormAccountStore {
	return &GormAccountStore{db: db}
}

func (s *GormAccountStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &u, nil
}

func (s *GormAccountStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &u, nil
}

func (s *GormAccountStore) Create(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *GormAccountStore) UpdateCredential(ctx context.Context, userID, passwordHash string) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"password_hash": passwordHash, "must_change_password": false}).Error
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

// UpdateLockout writes the counter and lock window in one single-row UPDATE;
// the lockout design relies on the store's atomic row update semantics.
func (s *GormAccountStore) UpdateLockout(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"failed_login_attempts": attempts, "locked_until": lockedUntil}).Error
	if err != nil {
		return fmt.Errorf("update lockout: %w", err)
	}
	return nil
}

func (s *GormAccountStore) UpdateActivity(ctx context.Context, userID string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("last_activity_at", &now).Error
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// GormTokenRecordStore implements TokenRecordStore over token_records.
type GormTokenRecordStore struct {
	db *gorm.DB
}

func NewGormTokenRecordStore(db *gorm.DB) *GormTokenRecordStore {
	return &GormTokenRecordStore{db: db}
}

func (s *GormTokenRecordStore) Insert(ctx context.Context, rec *models.TokenRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert token record: %w", err)
	}
	return nil
}

func (s *GormTokenRecordStore) FindActiveByHash(ctx context.Context, hash string) (*models.TokenRecord, error) {
	var rec models.TokenRecord
	err := s.db.WithContext(ctx).First(&rec, "token_hash = ? AND is_active = ?", hash, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find token record: %w", err)
	}
	return &rec, nil
}

func (s *GormTokenRecordStore) MarkUsed(ctx context.Context, id string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.TokenRecord{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "used_at": &now}).Error
	if err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	return nil
}

func (s *GormTokenRecordStore) MarkRevoked(ctx context.Context, id string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.TokenRecord{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "revoked_at": &now}).Error
	if err != nil {
		return fmt.Errorf("mark token revoked: %w", err)
	}
	return nil
}

func (s *GormTokenRecordStore) RevokeAllForUser(ctx context.Context, userID, kind string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.TokenRecord{}).
		Where("user_id = ? AND kind = ? AND is_active = ?", userID, kind, true).
		Updates(map[string]any{"is_active": false, "revoked_at": &now}).Error
	if err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

func (s *GormTokenRecordStore) Touch(ctx context.Context, id string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.TokenRecord{}).Where("id = ?", id).
		Update("last_used_at", &now).Error
	if err != nil {
		return fmt.Errorf("touch token record: %w", err)
	}
	return nil
}
