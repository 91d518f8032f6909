package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gatehouse/internal/auth"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]any{"success": false, "message": msg})
}

// respondAuthError maps the auth taxonomy onto HTTP statuses. Messages stay
// generic for authentication failures; store failures are 500s, never
// silent denials.
func respondAuthError(w http.ResponseWriter, err error) {
	var forbidden *auth.ForbiddenError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated")
	case errors.As(err, &forbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, auth.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
