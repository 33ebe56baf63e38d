package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	rv := &Resolver{Hosts: map[string]string{"shop.licenca.ba": "KM"}}

	t.Run("header wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Tenant", "km")
		tn, err := rv.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, KM, tn)
	})

	t.Run("host mapping", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "shop.licenca.ba:8081"
		tn, err := rv.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "KM", tn.Code)
	})

	t.Run("unknown host without default fails", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "elsewhere.example"
		_, err := rv.Resolve(r)
		assert.ErrorIs(t, err, ErrUnknownTenant)
	})

	t.Run("default fallback", func(t *testing.T) {
		rvd := &Resolver{Default: "EUR"}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		tn, err := rvd.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, EUR, tn)
	})

	t.Run("bogus header code fails", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Tenant", "USD")
		_, err := rv.Resolve(r)
		assert.ErrorIs(t, err, ErrUnknownTenant)
	})
}

func TestMiddleware(t *testing.T) {
	rv := &Resolver{}
	var got Tenant
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = From(r.Context())
	})

	t.Run("rejects unresolvable requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rv.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("attaches tenant to context", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Tenant", "EUR")
		rv.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, EUR, got)
	})
}
