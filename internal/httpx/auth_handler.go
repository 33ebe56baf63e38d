package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/licenca-shop/licenca/internal/auth"
	"github.com/licenca-shop/licenca/internal/users"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

type AuthHandler struct {
	Users    UserReader
	Sessions *auth.Sessions
	Log      *logrus.Logger
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/logout", h.logout)
}

// RegisterMe mounts the session-protected endpoint.
func (h *AuthHandler) RegisterMe(r chi.Router) {
	r.Get("/auth/me", h.me)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decode(r, &req) || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !u.IsActive || !auth.VerifyPassword(u.PasswordHash, req.Password) {
		// same answer for unknown user and bad password
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Sessions.Create(r.Context(), auth.Session{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
	})
	if err != nil {
		h.Log.WithError(err).Error("session create failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.Sessions.SetCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"role":      u.Role,
		"tenant_id": u.TenantID,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
		_ = h.Sessions.Delete(r.Context(), c.Value)
	}
	auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.From(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
