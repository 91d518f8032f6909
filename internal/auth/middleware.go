package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"gatehouse/internal/models"
	"gatehouse/internal/obs"
	"gatehouse/internal/rbac"
)

// Authenticate verifies the bearer token and threads the identity through
// the request context. Downstream gates consume it; handlers never re-parse
// the token.
func Authenticate(tokens *TokenService, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				denyUnauthenticated(w)
				return
			}
			claims, err := tokens.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil || claims.Kind != models.TokenKindAccess {
				denyUnauthenticated(w)
				return
			}
			id := Identity{
				UserID:         claims.Subject,
				Email:          claims.Email,
				OrganizationID: claims.OrganizationID,
				Roles:          claims.Roles,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAll passes only when the identity holds every listed permission.
func RequireAll(cache *rbac.Cache, lg *zap.SugaredLogger, slugs ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				obs.RecordAuthDecision("require_all", "unauthenticated")
				denyUnauthenticated(w)
				return
			}
			set, err := cache.Get(r.Context(), id.UserID)
			if err != nil {
				obs.RecordAuthDecision("require_all", "error")
				lg.Errorw("permission lookup failed", "user", id.UserID, "route", r.URL.Path, "error", err)
				denyInternal(w)
				return
			}
			var missing []string
			for _, slug := range slugs {
				if !set.Has(slug) {
					missing = append(missing, slug)
				}
			}
			if len(missing) > 0 {
				obs.RecordAuthDecision("require_all", "deny")
				lg.Infow("authorization denied", "user", id.UserID, "route", r.URL.Path, "required", slugs, "missing", missing)
				denyForbidden(w, map[string]any{"missing": missing})
				return
			}
			obs.RecordAuthDecision("require_all", "grant")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny passes when the identity holds at least one listed permission.
func RequireAny(cache *rbac.Cache, lg *zap.SugaredLogger, slugs ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				obs.RecordAuthDecision("require_any", "unauthenticated")
				denyUnauthenticated(w)
				return
			}
			set, err := cache.Get(r.Context(), id.UserID)
			if err != nil {
				obs.RecordAuthDecision("require_any", "error")
				lg.Errorw("permission lookup failed", "user", id.UserID, "route", r.URL.Path, "error", err)
				denyInternal(w)
				return
			}
			for _, slug := range slugs {
				if set.Has(slug) {
					obs.RecordAuthDecision("require_any", "grant")
					next.ServeHTTP(w, r)
					return
				}
			}
			obs.RecordAuthDecision("require_any", "deny")
			lg.Infow("authorization denied", "user", id.UserID, "route", r.URL.Path, "required_any", slugs)
			denyForbidden(w, map[string]any{"required": slugs})
		})
	}
}

// RequireRole bypasses the permission cache and re-queries active role
// assignments, comparing by role name or slug.
func RequireRole(store rbac.Store, lg *zap.SugaredLogger, names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				obs.RecordAuthDecision("require_role", "unauthenticated")
				denyUnauthenticated(w)
				return
			}
			assignments, err := store.ListActiveAssignments(r.Context(), id.UserID)
			if err != nil {
				obs.RecordAuthDecision("require_role", "error")
				lg.Errorw("role lookup failed", "user", id.UserID, "route", r.URL.Path, "error", err)
				denyInternal(w)
				return
			}
			for _, a := range assignments {
				for _, name := range names {
					if a.RoleName == name || a.RoleSlug == name {
						obs.RecordAuthDecision("require_role", "grant")
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			obs.RecordAuthDecision("require_role", "deny")
			lg.Infow("authorization denied", "user", id.UserID, "route", r.URL.Path, "required_roles", names)
			denyForbidden(w, map[string]any{"required_roles": names})
		})
	}
}

func denyUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthenticated"})
}

func denyForbidden(w http.ResponseWriter, detail map[string]any) {
	body := map[string]any{"success": false, "message": "forbidden"}
	for k, v := range detail {
		body[k] = v
	}
	writeJSON(w, http.StatusForbidden, body)
}

func denyInternal(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "internal error"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
