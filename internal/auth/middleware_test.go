package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"gatehouse/internal/rbac"
)

type erroringStore struct{}

func (erroringStore) ListActiveAssignments(context.Context, string) ([]rbac.Assignment, error) {
	return nil, errors.New("connection refused")
}

func (erroringStore) ListGrants(context.Context, []string) ([]rbac.Grant, error) {
	return nil, errors.New("connection refused")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func identityRequest(userID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	ctx := WithIdentity(r.Context(), Identity{UserID: userID, OrganizationID: "org-1"})
	return r.WithContext(ctx)
}

func newTestCache(store rbac.Store) *rbac.Cache {
	return rbac.NewCache(rbac.NewResolver(store), time.Minute)
}

func TestAuthenticateRejectsMissingAndBadTokens(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour, time.Hour, time.Hour, nil)
	mw := Authenticate(ts, zap.NewNop().Sugar())(okHandler())

	for name, header := range map[string]string{
		"missing": "",
		"basic":   "Basic dXNlcjpwdw==",
		"garbage": "Bearer not.a.token",
	} {
		r := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestAuthenticateRejectsNonAccessKinds(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour, time.Hour, time.Hour, nil)
	refresh, _, err := ts.IssueRefresh("user-1", "a@b.test")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	mw := Authenticate(ts, zap.NewNop().Sugar())(okHandler())
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+refresh)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token accepted as access: %d", w.Code)
	}
}

func TestAuthenticateThreadsIdentity(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour, time.Hour, time.Hour, nil)
	raw, _, err := ts.IssueAccess("user-1", "a@b.test", "org-1", []string{"administrator"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	var seen Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := Authenticate(ts, zap.NewNop().Sugar())(inner)
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen.UserID != "user-1" || seen.OrganizationID != "org-1" || !seen.HasRole("administrator") {
		t.Fatalf("identity mangled: %+v", seen)
	}
}

func TestGatesRequireIdentityBeforeAnyLookup(t *testing.T) {
	// An unauthenticated request must get 401, never 403, and must not
	// touch the store at all. The erroring store proves no lookup ran.
	lg := zap.NewNop().Sugar()
	gates := map[string]func(http.Handler) http.Handler{
		"require_all":  RequireAll(newTestCache(erroringStore{}), lg, "users:read"),
		"require_any":  RequireAny(newTestCache(erroringStore{}), lg, "users:read"),
		"require_role": RequireRole(erroringStore{}, lg, "Administrator"),
	}
	for name, gate := range gates {
		w := httptest.NewRecorder()
		gate(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestRequireAllReportsMissing(t *testing.T) {
	store := &fakeRBAC{
		assignments: map[string][]rbac.Assignment{
			"user-1": {{RoleID: "r1", RoleName: "Reception", RoleSlug: "reception"}},
		},
		grants: map[string][]rbac.Grant{
			"r1": {{RoleID: "r1", PermissionSlug: "visitors:read"}},
		},
	}
	gate := RequireAll(newTestCache(store), zap.NewNop().Sugar(), "visitors:read", "visitors:delete")
	w := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(w, identityRequest("user-1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	var body struct {
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Missing) != 1 || body.Missing[0] != "visitors:delete" {
		t.Fatalf("unexpected missing list: %v", body.Missing)
	}
}

func TestRequireAllPassesWithEveryPermission(t *testing.T) {
	store := &fakeRBAC{
		assignments: map[string][]rbac.Assignment{
			"user-1": {{RoleID: "r1", RoleName: "Admin", RoleSlug: "admin"}},
		},
		grants: map[string][]rbac.Grant{
			"r1": {
				{RoleID: "r1", PermissionSlug: "visitors:read"},
				{RoleID: "r1", PermissionSlug: "visitors:delete"},
			},
		},
	}
	gate := RequireAll(newTestCache(store), zap.NewNop().Sugar(), "visitors:read", "visitors:delete")
	w := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(w, identityRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireAnyPassesOnOneMatch(t *testing.T) {
	store := &fakeRBAC{
		assignments: map[string][]rbac.Assignment{
			"user-1": {{RoleID: "r1", RoleName: "Reception", RoleSlug: "reception"}},
		},
		grants: map[string][]rbac.Grant{
			"r1": {{RoleID: "r1", PermissionSlug: "visits:update"}},
		},
	}
	lg := zap.NewNop().Sugar()
	gate := RequireAny(newTestCache(store), lg, "incidents:manage", "visits:update")
	w := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(w, identityRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	deny := RequireAny(newTestCache(store), lg, "incidents:manage", "audit:read")
	w = httptest.NewRecorder()
	deny(okHandler()).ServeHTTP(w, identityRequest("user-1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireRoleMatchesNameOrSlug(t *testing.T) {
	store := &fakeRBAC{
		assignments: map[string][]rbac.Assignment{
			"user-1": {{RoleID: "r1", RoleName: "Administrator", RoleSlug: "administrator"}},
		},
	}
	lg := zap.NewNop().Sugar()
	for _, name := range []string{"Administrator", "administrator"} {
		gate := RequireRole(store, lg, name)
		w := httptest.NewRecorder()
		gate(okHandler()).ServeHTTP(w, identityRequest("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("role %q: expected 200, got %d", name, w.Code)
		}
	}

	gate := RequireRole(store, lg, "Security")
	w := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(w, identityRequest("user-1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestStoreFailureIsServerErrorNotDenial(t *testing.T) {
	lg := zap.NewNop().Sugar()
	gates := map[string]func(http.Handler) http.Handler{
		"require_all":  RequireAll(newTestCache(erroringStore{}), lg, "users:read"),
		"require_any":  RequireAny(newTestCache(erroringStore{}), lg, "users:read"),
		"require_role": RequireRole(erroringStore{}, lg, "Administrator"),
	}
	for name, gate := range gates {
		w := httptest.NewRecorder()
		gate(okHandler()).ServeHTTP(w, identityRequest("user-1"))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", name, w.Code)
		}
	}
}

func TestAssignmentChangeBitesAfterInvalidation(t *testing.T) {
	store := &fakeRBAC{
		assignments: map[string][]rbac.Assignment{
			"user-1": {{RoleID: "r1", RoleName: "Admin", RoleSlug: "admin"}},
		},
		grants: map[string][]rbac.Grant{
			"r1": {{RoleID: "r1", PermissionSlug: "users:delete"}},
		},
	}
	cache := newTestCache(store)
	gate := RequireAll(cache, zap.NewNop().Sugar(), "users:delete")(okHandler())

	w := httptest.NewRecorder()
	gate.ServeHTTP(w, identityRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 before removal, got %d", w.Code)
	}

	// Remove the assignment and invalidate, as the admin handlers do.
	store.assignments["user-1"] = nil
	cache.Invalidate("user-1")

	w = httptest.NewRecorder()
	gate.ServeHTTP(w, identityRequest("user-1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after removal, got %d", w.Code)
	}
}
