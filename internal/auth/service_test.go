package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"gatehouse/internal/models"
	"gatehouse/internal/rbac"
)

type fakeAccounts struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeAccounts(users ...*models.User) *fakeAccounts {
	f := &fakeAccounts{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAccounts) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = "user-" + u.Email
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeAccounts) UpdateCredential(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeAccounts) UpdateLockout(_ context.Context, userID string, attempts int, lockedUntil *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.FailedLoginAttempts = attempts
	u.LockedUntil = lockedUntil
	return nil
}

func (f *fakeAccounts) UpdateActivity(_ context.Context, userID string) error { return nil }

func (f *fakeAccounts) get(id string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

type fakeRecords struct {
	mu   sync.Mutex
	next int
	recs map[string]*models.TokenRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{recs: make(map[string]*models.TokenRecord)}
}

func (f *fakeRecords) Insert(_ context.Context, rec *models.TokenRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	if rec.ID == "" {
		rec.ID = "rec-" + string(rune('a'+f.next))
	}
	cp := *rec
	f.recs[rec.ID] = &cp
	return nil
}

func (f *fakeRecords) FindActiveByHash(_ context.Context, hash string) (*models.TokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.TokenHash == hash && r.IsActive {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRecords) MarkUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	r.IsActive = false
	r.UsedAt = &now
	return nil
}

func (f *fakeRecords) MarkRevoked(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	r.IsActive = false
	r.RevokedAt = &now
	return nil
}

func (f *fakeRecords) RevokeAllForUser(_ context.Context, userID, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, r := range f.recs {
		if r.UserID == userID && r.Kind == kind && r.IsActive {
			r.IsActive = false
			r.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeRecords) Touch(_ context.Context, id string) error { return nil }

func (f *fakeRecords) activeCount(userID, kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.recs {
		if r.UserID == userID && r.Kind == kind && r.IsActive {
			n++
		}
	}
	return n
}

type fakeRBAC struct {
	assignments map[string][]rbac.Assignment
	grants      map[string][]rbac.Grant
}

func (f *fakeRBAC) ListActiveAssignments(_ context.Context, userID string) ([]rbac.Assignment, error) {
	return f.assignments[userID], nil
}

func (f *fakeRBAC) ListGrants(_ context.Context, roleIDs []string) ([]rbac.Grant, error) {
	var out []rbac.Grant
	for _, id := range roleIDs {
		out = append(out, f.grants[id]...)
	}
	return out, nil
}

type serviceHarness struct {
	svc      *Service
	accounts *fakeAccounts
	records  *fakeRecords
	now      time.Time
}

func newServiceHarness(t *testing.T, users ...*models.User) *serviceHarness {
	t.Helper()
	h := &serviceHarness{
		accounts: newFakeAccounts(users...),
		records:  newFakeRecords(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	store := &fakeRBAC{
		assignments: map[string][]rbac.Assignment{},
		grants:      map[string][]rbac.Grant{},
	}
	resolver := rbac.NewResolver(store)
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour, 10*time.Minute, nil).
		WithClock(func() time.Time { return h.now })
	h.svc = NewService(
		h.accounts, h.records, tokens, store, resolver,
		rbac.NewCache(resolver, time.Minute), nil, zap.NewNop().Sugar(),
		WithClock(func() time.Time { return h.now }),
	)
	return h
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &models.User{
		ID:             "user-1",
		OrganizationID: "org-1",
		Email:          "alice@example.test",
		PasswordHash:   hash,
		IsActive:       true,
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	u := testUser(t, "correct horse")
	u.FailedLoginAttempts = 3
	h := newServiceHarness(t, u)

	res, err := h.svc.Login(context.Background(), "alice@example.test", "correct horse", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("token pair missing")
	}
	if got := h.accounts.get("user-1"); got.FailedLoginAttempts != 0 || got.LockedUntil != nil {
		t.Fatalf("counter not reset: %+v", got)
	}
	if h.records.activeCount("user-1", models.TokenKindRefresh) != 1 {
		t.Fatal("refresh record not persisted")
	}
}

func TestLoginLocksAfterThreshold(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "correct horse"))
	ctx := context.Background()

	for i := 0; i < LockoutThreshold; i++ {
		if _, err := h.svc.Login(ctx, "alice@example.test", "wrong", "", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	got := h.accounts.get("user-1")
	if got.LockedUntil == nil {
		t.Fatal("account not locked after threshold")
	}

	// Correct password while locked is still rejected, indistinguishably.
	if _, err := h.svc.Login(ctx, "alice@example.test", "correct horse", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials while locked, got %v", err)
	}
}

func TestLoginSucceedsAfterLockWindow(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "correct horse"))
	ctx := context.Background()

	for i := 0; i < LockoutThreshold; i++ {
		_, _ = h.svc.Login(ctx, "alice@example.test", "wrong", "", "")
	}
	h.now = h.now.Add(LockoutWindow + time.Minute)

	res, err := h.svc.Login(ctx, "alice@example.test", "correct horse", "", "")
	if err != nil {
		t.Fatalf("Login after window: %v", err)
	}
	if res == nil {
		t.Fatal("nil result")
	}
	if got := h.accounts.get("user-1"); got.FailedLoginAttempts != 0 || got.LockedUntil != nil {
		t.Fatalf("lock not cleared on success: %+v", got)
	}
}

func TestLoginUnknownAndInactiveAreIndistinguishable(t *testing.T) {
	u := testUser(t, "pw")
	u.IsActive = false
	h := newServiceHarness(t, u)
	ctx := context.Background()

	_, errUnknown := h.svc.Login(ctx, "nobody@example.test", "pw", "", "")
	_, errInactive := h.svc.Login(ctx, "alice@example.test", "pw", "", "")
	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errInactive, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errUnknown, errInactive)
	}
}

func TestRefreshHappyPath(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "pw"))
	ctx := context.Background()
	res, err := h.svc.Login(ctx, "alice@example.test", "pw", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	access, err := h.svc.Refresh(ctx, res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if access == "" {
		t.Fatal("empty access token")
	}
	// Not rotated: the same refresh token works again.
	if _, err := h.svc.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "pw"))
	ctx := context.Background()
	res, err := h.svc.Login(ctx, "alice@example.test", "pw", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := h.svc.Refresh(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestRefreshRejectsRevokedRecord(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "pw"))
	ctx := context.Background()
	res, err := h.svc.Login(ctx, "alice@example.test", "pw", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := h.svc.Logout(ctx, res.Tokens.RefreshToken, "user-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	// Signature is still valid; the server-side record decides.
	if _, err := h.svc.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after revoke, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "pw"))
	ctx := context.Background()
	if err := h.svc.Logout(ctx, "never-issued", "user-1"); err != nil {
		t.Fatalf("logout of unknown token errored: %v", err)
	}
	if err := h.svc.Logout(ctx, "", ""); err != nil {
		t.Fatalf("empty logout errored: %v", err)
	}
}

func TestResetPasswordFlow(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "old-pw"))
	ctx := context.Background()

	res, err := h.svc.Login(ctx, "alice@example.test", "old-pw", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	token, err := h.svc.ForgotPassword(ctx, "alice@example.test")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if token == "" {
		t.Fatal("no reset token issued")
	}

	if err := h.svc.ResetPassword(ctx, token, "new-pw"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	// Every outstanding refresh token is revoked.
	if h.records.activeCount("user-1", models.TokenKindRefresh) != 0 {
		t.Fatal("refresh tokens survived the reset")
	}
	if _, err := h.svc.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old refresh token still works: %v", err)
	}

	// Single use: a second redemption fails.
	if err := h.svc.ResetPassword(ctx, token, "another-pw"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}

	if _, err := h.svc.Login(ctx, "alice@example.test", "new-pw", "", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	h := newServiceHarness(t)
	token, err := h.svc.ForgotPassword(context.Background(), "ghost@example.test")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if token != "" {
		t.Fatal("token issued for unknown account")
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	h := newServiceHarness(t, testUser(t, "old-pw"))
	ctx := context.Background()

	if err := h.svc.ChangePassword(ctx, "user-1", "wrong", "new-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := h.svc.ChangePassword(ctx, "user-1", "old-pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := h.svc.Login(ctx, "alice@example.test", "new-pw", "", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
