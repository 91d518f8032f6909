package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"gatehouse/internal/auth"
)

type registerReq struct {
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

func Register(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Email == "" || req.Password == "" || req.OrganizationID == "" {
			respondError(w, http.StatusBadRequest, "organization_id, email and password required")
			return
		}
		user, pair, err := svc.Register(r.Context(), auth.RegisterInput{
			OrganizationID: req.OrganizationID,
			Email:          req.Email,
			Password:       req.Password,
			Device:         r.UserAgent(),
			IP:             r.RemoteAddr,
		})
		if err != nil {
			lg.Warnw("register failed", "email", req.Email, "error", err)
			respondError(w, http.StatusBadRequest, "registration failed")
			return
		}
		respondJSON(w, map[string]any{"user": user, "tokens": pair})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := svc.Login(r.Context(), req.Email, req.Password, r.UserAgent(), r.RemoteAddr)
		if err != nil {
			respondAuthError(w, err)
			return
		}
		respondJSON(w, map[string]any{
			"user":        res.User,
			"roles":       res.Roles,
			"permissions": res.Permissions,
			"tokens":      res.Tokens,
		})
	}
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func Refresh(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		access, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			respondAuthError(w, err)
			return
		}
		respondJSON(w, map[string]any{"access_token": access})
	}
}

func Logout(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = svc.Logout(r.Context(), req.RefreshToken, auth.Subject(r.Context()))
		respondJSON(w, map[string]any{"ok": true})
	}
}

func ForgotPassword(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Same response whether or not the account exists.
		if _, err := svc.ForgotPassword(r.Context(), req.Email); err != nil {
			lg.Errorw("forgot password failed", "error", err)
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}

func ResetPassword(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Token == "" || req.NewPassword == "" {
			respondError(w, http.StatusBadRequest, "token and new_password required")
			return
		}
		if err := svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
			respondAuthError(w, err)
			return
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}

func ChangePassword(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.NewPassword == "" {
			respondError(w, http.StatusBadRequest, "new_password required")
			return
		}
		if err := svc.ChangePassword(r.Context(), auth.Subject(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
			respondAuthError(w, err)
			return
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}

func Me(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Whoami(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondAuthError(w, err)
			return
		}
		respondJSON(w, map[string]any{
			"user":        res.User,
			"roles":       res.Roles,
			"permissions": res.Permissions,
		})
	}
}
