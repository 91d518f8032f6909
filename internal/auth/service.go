package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"gatehouse/internal/audit"
	"gatehouse/internal/models"
	"gatehouse/internal/rbac"
)

// Service orchestrates the credential, token, lockout and resolver
// components into the login/refresh/logout/reset flows.
type Service struct {
	accounts  AccountStore
	records   TokenRecordStore
	tokens    *TokenService
	rbacStore rbac.Store
	resolver  *rbac.Resolver
	cache     *rbac.Cache
	audit     *audit.Recorder
	lg        *zap.SugaredLogger
	now       func() time.Time
}

type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(
	accounts AccountStore,
	records TokenRecordStore,
	tokens *TokenService,
	rbacStore rbac.Store,
	resolver *rbac.Resolver,
	cache *rbac.Cache,
	recorder *audit.Recorder,
	lg *zap.SugaredLogger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		accounts:  accounts,
		records:   records,
		tokens:    tokens,
		rbacStore: rbacStore,
		resolver:  resolver,
		cache:     cache,
		audit:     recorder,
		lg:        lg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginResult struct {
	User        *models.User
	Roles       []string
	Permissions []string
	Tokens      TokenPair
}

type RegisterInput struct {
	OrganizationID string
	Email          string
	Password       string
	Device         string
	IP             string
}

// Register creates an account and issues an initial token pair. Role
// assignments are an admin operation, not part of self-registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		OrganizationID: in.OrganizationID,
		Email:          email,
		PasswordHash:   hash,
		IsActive:       true,
	}
	if err := s.accounts.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issuePair(ctx, u, nil, in.Device, in.IP)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.audit.Record(audit.EventRegistered, u.ID, map[string]any{"email": email})
	return u, pair, nil
}

// Login runs the full attempt state machine: lookup, lock check, password
// verify, counter update, token issuance. Lockout writes complete before any
// response; losing one would let attackers slip past the threshold.
func (s *Service) Login(ctx context.Context, email, password, device, ip string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	now := s.now()

	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.audit.Record(audit.EventLoginFailed, "", map[string]any{"email": email, "reason": "unknown_account"})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		s.audit.Record(audit.EventLoginFailed, user.ID, map[string]any{"reason": "inactive"})
		return nil, ErrInvalidCredentials
	}

	state := LockoutState{FailedAttempts: user.FailedLoginAttempts, LockedUntil: user.LockedUntil}
	if state.Locked(now) {
		s.audit.Record(audit.EventLoginFailed, user.ID, map[string]any{"reason": "locked"})
		return nil, ErrInvalidCredentials
	}

	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		next := state.Fail(now)
		if err := s.accounts.UpdateLockout(ctx, user.ID, next.FailedAttempts, next.LockedUntil); err != nil {
			return nil, err
		}
		if next.Locked(now) && !state.Locked(now) {
			s.audit.Record(audit.EventAccountLocked, user.ID, map[string]any{"attempts": next.FailedAttempts})
		} else {
			s.audit.Record(audit.EventLoginFailed, user.ID, map[string]any{"reason": "bad_password", "attempts": next.FailedAttempts})
		}
		return nil, ErrInvalidCredentials
	}

	reset := state.Reset()
	if reset.Dirty(state) {
		if err := s.accounts.UpdateLockout(ctx, user.ID, 0, nil); err != nil {
			return nil, err
		}
	}

	roles, perms, err := s.resolveRolesAndPermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	pair, err := s.issuePair(ctx, user, roles, device, ip)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateActivity(ctx, user.ID); err != nil {
		s.lg.Warnw("activity update failed", "user", user.ID, "error", err)
	}
	s.audit.Record(audit.EventLoginSuccess, user.ID, map[string]any{"ip": ip, "device": device})
	return &LoginResult{User: user, Roles: roles, Permissions: perms, Tokens: pair}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is not rotated. A token whose server-side record is inactive
// fails even if its signature and embedded expiry are still good.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (string, error) {
	claims, err := s.tokens.Verify(rawRefresh)
	if err != nil || claims.Kind != models.TokenKindRefresh {
		return "", ErrInvalidToken
	}
	rec, err := s.records.FindActiveByHash(ctx, HashToken(rawRefresh))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if !rec.IsActive || s.now().After(rec.ExpiresAt) {
		return "", ErrInvalidToken
	}
	user, err := s.accounts.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidToken
	}
	roles, _, err := s.resolveRolesAndPermissions(ctx, user.ID)
	if err != nil {
		return "", err
	}
	access, _, err := s.tokens.IssueAccess(user.ID, user.Email, user.OrganizationID, roles)
	if err != nil {
		return "", err
	}
	if err := s.records.Touch(ctx, rec.ID); err != nil {
		s.lg.Warnw("token record touch failed", "record", rec.ID, "error", err)
	}
	if err := s.accounts.UpdateActivity(ctx, user.ID); err != nil {
		s.lg.Warnw("activity update failed", "user", user.ID, "error", err)
	}
	s.audit.Record(audit.EventTokenRefreshed, user.ID, nil)
	return access, nil
}

// Logout revokes the supplied refresh token if its record is still live.
// Idempotent: a missing or already revoked token is not an error.
func (s *Service) Logout(ctx context.Context, rawRefresh, userID string) error {
	if rawRefresh != "" {
		if rec, err := s.records.FindActiveByHash(ctx, HashToken(rawRefresh)); err == nil {
			if err := s.records.MarkRevoked(ctx, rec.ID); err != nil {
				s.lg.Warnw("refresh revoke failed", "record", rec.ID, "error", err)
			}
			if userID == "" {
				userID = rec.UserID
			}
		}
	}
	if userID != "" {
		if err := s.accounts.UpdateActivity(ctx, userID); err != nil {
			s.lg.Warnw("activity update failed", "user", userID, "error", err)
		}
		s.audit.Record(audit.EventLogout, userID, nil)
	}
	return nil
}

// ForgotPassword mints a single-use reset token and persists its hash.
// Always succeeds from the caller's perspective to prevent enumeration; the
// token itself goes to the mail collaborator, never into the response.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	token, exp, err := s.tokens.IssueSingleUse(user.ID, models.TokenKindPasswordReset)
	if err != nil {
		return "", err
	}
	rec := &models.TokenRecord{
		UserID:    user.ID,
		Kind:      models.TokenKindPasswordReset,
		TokenHash: HashToken(token),
		ExpiresAt: exp,
		IsActive:  true,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return "", err
	}
	s.audit.Record(audit.EventPasswordResetSent, user.ID, nil)
	return token, nil
}

// ResetPassword redeems a single-use token, updates the credential, burns
// the token and revokes every outstanding refresh token so the account must
// log in again everywhere. The lock is cleared as an administrative reset.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil || claims.Kind != models.TokenKindPasswordReset {
		return ErrInvalidToken
	}
	rec, err := s.records.FindActiveByHash(ctx, HashToken(rawToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if !rec.IsActive || s.now().After(rec.ExpiresAt) {
		return ErrInvalidToken
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdateCredential(ctx, rec.UserID, hash); err != nil {
		return err
	}
	if err := s.records.MarkUsed(ctx, rec.ID); err != nil {
		return err
	}
	if err := s.records.RevokeAllForUser(ctx, rec.UserID, models.TokenKindRefresh); err != nil {
		return err
	}
	if err := s.accounts.UpdateLockout(ctx, rec.UserID, 0, nil); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(rec.UserID)
	}
	s.audit.Record(audit.EventPasswordReset, rec.UserID, nil)
	return nil
}

// ChangePassword verifies the current password before updating, then
// revokes outstanding refresh tokens.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := CheckPassword(user.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdateCredential(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.records.RevokeAllForUser(ctx, userID, models.TokenKindRefresh); err != nil {
		return err
	}
	s.audit.Record(audit.EventPasswordChanged, userID, nil)
	return nil
}

// Whoami returns the account with its resolved roles and permission slugs.
func (s *Service) Whoami(ctx context.Context, userID string) (*LoginResult, error) {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, perms, err := s.resolveRolesAndPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Roles: roles, Permissions: perms}, nil
}

func (s *Service) resolveRolesAndPermissions(ctx context.Context, userID string) ([]string, []string, error) {
	assignments, err := s.rbacStore.ListActiveAssignments(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	roles := make([]string, 0, len(assignments))
	for _, a := range assignments {
		roles = append(roles, a.RoleSlug)
	}
	set, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return roles, set.Slugs(), nil
}

func (s *Service) issuePair(ctx context.Context, user *models.User, roles []string, device, ip string) (TokenPair, error) {
	access, _, err := s.tokens.IssueAccess(user.ID, user.Email, user.OrganizationID, roles)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, err
	}
	rec := &models.TokenRecord{
		UserID:    user.ID,
		Kind:      models.TokenKindRefresh,
		TokenHash: HashToken(refresh),
		ExpiresAt: refreshExp,
		IsActive:  true,
		Device:    device,
		IP:        ip,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
