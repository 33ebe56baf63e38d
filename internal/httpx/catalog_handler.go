package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/licenca-shop/licenca/internal/cache"
	"github.com/licenca-shop/licenca/internal/catalog"
	"github.com/licenca-shop/licenca/internal/money"
	"github.com/licenca-shop/licenca/internal/redisx"
	"github.com/licenca-shop/licenca/internal/tenant"
)

type CatalogStore interface {
	ListProducts(ctx context.Context, f catalog.ProductFilter) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CategoriesByLevel(ctx context.Context, level int) ([]catalog.Category, error)
	CategoryChildren(ctx context.Context, parentID string) ([]catalog.Category, error)
	CategoryPath(ctx context.Context, id string) ([]catalog.Category, error)
}

type CatalogHandler struct {
	Store CatalogStore
	Cache *cache.Cache
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/hierarchy", h.hierarchy)
	r.Get("/categories/level/{n}", h.byLevel)
	r.Get("/categories/{id}/children", h.children)
	r.Get("/categories/{id}/path", h.path)
}

// storefrontProduct is the tenant-priced public view. Purchase and wholesale
// prices never leave the admin API.
type storefrontProduct struct {
	ID            string       `json:"id"`
	SKU           string       `json:"sku"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	CategoryID    *string      `json:"category_id,omitempty"`
	Price         money.Amount `json:"price"`
	Currency      string       `json:"currency"`
	Region        string       `json:"region"`
	Platform      string       `json:"platform"`
	AvailableKeys int          `json:"available_keys"`
}

func storefrontView(ps []catalog.Product, t tenant.Tenant) []storefrontProduct {
	out := make([]storefrontProduct, 0, len(ps))
	for _, p := range ps {
		out = append(out, storefrontProduct{
			ID:            p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			Description:   p.Description,
			CategoryID:    p.CategoryID,
			Price:         p.UnitPrice(t.Code),
			Currency:      t.Currency,
			Region:        p.Region,
			Platform:      p.Platform,
			AvailableKeys: p.AvailableKeys,
		})
	}
	return out
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.From(r.Context())
	f := catalog.ProductFilter{
		CategoryID: r.URL.Query().Get("category"),
		Query:      r.URL.Query().Get("q"),
		ActiveOnly: true,
	}

	key := "products:" + t.Code + ":" + f.CategoryID + ":" + f.Query
	var cached []storefrontProduct
	if h.Cache.GetJSON(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	ps, err := h.Store.ListProducts(r.Context(), f)
	if err != nil {
		domainError(w, err)
		return
	}
	view := storefrontView(ps, t)
	h.Cache.SetJSON(r.Context(), key, view, redisx.TTLCatalog, "products")
	writeJSON(w, http.StatusOK, view)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.From(r.Context())
	p, err := h.Store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	if !p.IsActive {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, storefrontView([]catalog.Product{p}, t)[0])
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.ListCategories(r.Context())
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) hierarchy(w http.ResponseWriter, r *http.Request) {
	var cached []*catalog.CategoryNode
	if h.Cache.GetJSON(r.Context(), "categories:hierarchy", &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	cs, err := h.Store.ListCategories(r.Context())
	if err != nil {
		domainError(w, err)
		return
	}
	tree := catalog.BuildTree(cs)
	h.Cache.SetJSON(r.Context(), "categories:hierarchy", tree, redisx.TTLCatalog, "categories")
	writeJSON(w, http.StatusOK, tree)
}

func (h *CatalogHandler) byLevel(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 || n > 3 {
		writeError(w, http.StatusBadRequest, "level must be 1..3")
		return
	}
	cs, err := h.Store.CategoriesByLevel(r.Context(), n)
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) children(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.CategoryChildren(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) path(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.CategoryPath(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}
