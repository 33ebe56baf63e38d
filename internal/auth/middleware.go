package auth

import (
	"context"
	"net/http"

	"github.com/licenca-shop/licenca/internal/tenant"
	"github.com/licenca-shop/licenca/internal/users"
)

type ctxKey struct{}

func With(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func From(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

type Middleware struct{ Sessions *Sessions }

// RequireUser resolves the session cookie and enforces tenant isolation:
// a customer may only act on the storefront they belong to. Admins pass for
// any tenant.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil || c.Value == "" {
			unauthorized(w)
			return
		}
		sess, err := m.Sessions.Get(r.Context(), c.Value)
		if err != nil {
			unauthorized(w)
			return
		}
		if t, ok := tenant.From(r.Context()); ok &&
			sess.Role != users.RoleAdmin && sess.TenantID != t.Code {
			forbidden(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(With(r.Context(), sess)))
	})
}

func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := From(r.Context())
		if sess.Role != users.RoleAdmin {
			forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"authentication required"}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden"}`))
}
