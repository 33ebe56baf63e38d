package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licenca-shop/licenca/internal/auth"
	"github.com/licenca-shop/licenca/internal/cache"
	"github.com/licenca-shop/licenca/internal/catalog"
	"github.com/licenca-shop/licenca/internal/money"
	"github.com/licenca-shop/licenca/internal/tenant"
)

// deadCache points at a closed port so every read degrades to the source
// query and every write is a no-op.
func deadCache() *cache.Cache {
	return &cache.Cache{RDB: redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})}
}

type fakeCatalog struct {
	products   []catalog.Product
	categories []catalog.Category
}

func (f *fakeCatalog) ListProducts(_ context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range f.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (f *fakeCatalog) ListCategories(context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalog) CategoriesByLevel(_ context.Context, level int) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range f.categories {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) CategoryChildren(context.Context, string) ([]catalog.Category, error) {
	return nil, nil
}

func (f *fakeCatalog) CategoryPath(context.Context, string) ([]catalog.Category, error) {
	return nil, nil
}

func catalogRouter(f *fakeCatalog, t tenant.Tenant) http.Handler {
	r := chi.NewRouter()
	r.Use(identity(auth.Session{}, t))
	(&CatalogHandler{Store: f, Cache: deadCache()}).Register(r)
	return r
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:            "p1",
			SKU:           "WIN-11-PRO",
			Name:          "Windows 11 Pro",
			PriceEUR:      money.New(decimal.RequireFromString("129.99")),
			PriceKM:       money.New(decimal.RequireFromString("254.00")),
			PurchasePrice: money.New(decimal.RequireFromString("80.00")),
			B2BPrice:      money.New(decimal.RequireFromString("99.00")),
			IsActive:      true,
			AvailableKeys: 7,
		},
		{ID: "p2", SKU: "OFF-2021", Name: "Office 2021", IsActive: false},
	}
}

func TestCatalogHandlerProducts(t *testing.T) {
	t.Run("storefront list hides wholesale prices", func(t *testing.T) {
		rec := httptest.NewRecorder()
		catalogRouter(&fakeCatalog{products: testProducts()}, tenant.EUR).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `"price":"129.99"`)
		assert.Contains(t, body, `"currency":"EUR"`)
		assert.NotContains(t, body, "purchase_price")
		assert.NotContains(t, body, "b2b_price")
		assert.NotContains(t, body, "Office 2021") // inactive product filtered
	})

	t.Run("tenant picks its price column", func(t *testing.T) {
		rec := httptest.NewRecorder()
		catalogRouter(&fakeCatalog{products: testProducts()}, tenant.KM).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/p1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var got storefrontProduct
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "254.00", got.Price.StringFixed(2))
		assert.Equal(t, "KM", got.Currency)
		assert.Equal(t, 7, got.AvailableKeys)
	})

	t.Run("inactive product is not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		catalogRouter(&fakeCatalog{products: testProducts()}, tenant.EUR).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/p2", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		catalogRouter(&fakeCatalog{products: testProducts()}, tenant.EUR).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCatalogHandlerCategories(t *testing.T) {
	root := "c1"
	cats := []catalog.Category{
		{ID: "c1", Name: "Operating Systems", Slug: "operating-systems", Level: 1, Path: "/operating-systems"},
		{ID: "c2", ParentID: &root, Name: "Windows", Slug: "windows", Level: 2, Path: "/operating-systems/windows"},
	}

	t.Run("hierarchy nests children under parents", func(t *testing.T) {
		rec := httptest.NewRecorder()
		catalogRouter(&fakeCatalog{categories: cats}, tenant.EUR).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/hierarchy", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var tree []*catalog.CategoryNode
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
		require.Len(t, tree, 1)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, "Windows", tree[0].Children[0].Name)
	})

	t.Run("level outside 1..3 is rejected", func(t *testing.T) {
		for _, lvl := range []string{"0", "4", "x"} {
			rec := httptest.NewRecorder()
			catalogRouter(&fakeCatalog{categories: cats}, tenant.EUR).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/level/"+lvl, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "level %s", lvl)
		}
	})

	t.Run("by level filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		catalogRouter(&fakeCatalog{categories: cats}, tenant.EUR).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/level/2", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Windows")
		assert.NotContains(t, rec.Body.String(), "Operating Systems")
	})
}
