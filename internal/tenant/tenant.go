package tenant

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Tenant is one of the platform storefronts. Pricing and cart/order rows are
// scoped per tenant.
type Tenant struct {
	Code     string `json:"code"`
	Currency string `json:"currency"`
}

var (
	EUR = Tenant{Code: "EUR", Currency: "EUR"}
	KM  = Tenant{Code: "KM", Currency: "KM"}
)

var ErrUnknownTenant = errors.New("unknown tenant")

func ByCode(code string) (Tenant, error) {
	switch strings.ToUpper(code) {
	case "EUR":
		return EUR, nil
	case "KM":
		return KM, nil
	}
	return Tenant{}, ErrUnknownTenant
}

type ctxKey struct{}

func With(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

func From(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(ctxKey{}).(Tenant)
	return t, ok
}

// Resolver maps requests to tenants: the X-Tenant header wins, then the
// request host, then Default (empty Default means unresolved requests fail).
type Resolver struct {
	Hosts   map[string]string
	Default string
}

func (rv *Resolver) Resolve(r *http.Request) (Tenant, error) {
	if code := r.Header.Get("X-Tenant"); code != "" {
		return ByCode(code)
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if code, ok := rv.Hosts[strings.ToLower(host)]; ok {
		return ByCode(code)
	}
	if rv.Default != "" {
		return ByCode(rv.Default)
	}
	return Tenant{}, ErrUnknownTenant
}

// Middleware attaches the resolved tenant to the request context. Requests
// that resolve to no tenant are rejected before any handler runs.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := rv.Resolve(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unknown tenant"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(With(r.Context(), t)))
	})
}
