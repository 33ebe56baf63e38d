package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/licenca-shop/licenca/internal/auth"
	"github.com/licenca-shop/licenca/internal/cache"
	"github.com/licenca-shop/licenca/internal/catalog"
	"github.com/licenca-shop/licenca/internal/licensekeys"
	"github.com/licenca-shop/licenca/internal/money"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/users"
)

// AdminHandler is the back office: product and category management, pricing,
// users, the license key pool and cross-tenant order listings.
type AdminHandler struct {
	Catalog *catalog.Repo
	Users   *users.Repo
	Keys    *licensekeys.Repo
	Orders  *orders.Repo
	Cache   *cache.Cache
	Log     *logrus.Logger
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Put("/products/{id}/pricing", h.updatePricing)

	r.Post("/categories", h.createCategory)
	r.Put("/categories/{id}", h.updateCategory)
	r.Delete("/categories/{id}", h.deleteCategory)

	r.Get("/users", h.listUsers)
	r.Post("/users", h.createUser)
	r.Put("/users/{id}", h.updateUser)
	r.Post("/users/{id}/password", h.resetPassword)

	r.Get("/license-keys", h.listKeys)
	r.Get("/license-keys/counts", h.keyCounts)
	r.Post("/license-keys", h.importKeys)

	r.Get("/orders", h.listOrders)
}

// ---- products ----

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListProducts(r.Context(), catalog.ProductFilter{
		CategoryID: r.URL.Query().Get("category"),
		Query:      r.URL.Query().Get("q"),
	})
	if err != nil {
		domainError(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

type productReq struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id"`
	Region      string  `json:"region"`
	Platform    string  `json:"platform"`
	IsActive    *bool   `json:"is_active"`

	PriceEUR      money.Amount `json:"price_eur"`
	PriceKM       money.Amount `json:"price_km"`
	PurchasePrice money.Amount `json:"purchase_price"`
	B2BPrice      money.Amount `json:"b2b_price"`
	RetailPrice   money.Amount `json:"retail_price"`
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if !decode(r, &req) || req.SKU == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "sku and name required")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := catalog.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		PriceEUR:      req.PriceEUR,
		PriceKM:       req.PriceKM,
		PurchasePrice: req.PurchasePrice,
		B2BPrice:      req.B2BPrice,
		RetailPrice:   req.RetailPrice,
		Region:        req.Region,
		Platform:      req.Platform,
		IsActive:      active,
	}
	if err := h.Catalog.CreateProduct(r.Context(), &p); err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "products")
	writeJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if !decode(r, &req) || req.SKU == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "sku and name required")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := catalog.Product{
		ID:          chi.URLParam(r, "id"),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Region:      req.Region,
		Platform:    req.Platform,
		IsActive:    active,
	}
	if err := h.Catalog.UpdateProduct(r.Context(), p); err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "products")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "products")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) updatePricing(w http.ResponseWriter, r *http.Request) {
	var pr catalog.Pricing
	if !decode(r, &pr) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Catalog.UpdatePricing(r.Context(), chi.URLParam(r, "id"), pr); err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "products")
	w.WriteHeader(http.StatusNoContent)
}

// ---- categories ----

type categoryReq struct {
	ParentID  *string `json:"parent_id"`
	Name      string  `json:"name"`
	SortOrder int     `json:"sort_order"`
}

func (h *AdminHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if !decode(r, &req) || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	c := catalog.Category{ParentID: req.ParentID, Name: req.Name, SortOrder: req.SortOrder}
	if err := h.Catalog.CreateCategory(r.Context(), &c); err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "categories")
	writeJSON(w, http.StatusCreated, c)
}

func (h *AdminHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if !decode(r, &req) || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if err := h.Catalog.RenameCategory(r.Context(), chi.URLParam(r, "id"), req.Name, req.SortOrder); err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "categories")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "categories")
	w.WriteHeader(http.StatusNoContent)
}

// ---- users ----

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		sess, _ := auth.From(r.Context())
		tenantID = sess.TenantID
	}
	us, err := h.Users.List(r.Context(), tenantID)
	if err != nil {
		domainError(w, err)
		return
	}
	if us == nil {
		us = []users.User{}
	}
	writeJSON(w, http.StatusOK, us)
}

type userReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	TenantID    string `json:"tenant_id"`
	CompanyName string `json:"company_name"`

	// pointers so an update can set a balance or limit to zero
	StartingBalance *money.Amount `json:"starting_balance"`
	CreditLimit     *money.Amount `json:"credit_limit"`
	IsActive        *bool         `json:"is_active"`
}

func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userReq
	if !decode(r, &req) || req.Email == "" || req.Password == "" || req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "email, password and tenant_id required")
		return
	}
	role := req.Role
	if role == "" {
		role = users.RoleCustomer
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.WithError(err).Error("hash password")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	u := users.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		TenantID:     req.TenantID,
		CompanyName:  req.CompanyName,
		IsActive:     active,
	}
	if req.StartingBalance != nil {
		u.StartingBalance = *req.StartingBalance
	}
	if req.CreditLimit != nil {
		u.CreditLimit = *req.CreditLimit
	}
	if err := h.Users.Create(r.Context(), u); err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userReq
	if !decode(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	existing, err := h.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	applyUserUpdate(&existing, req)
	if err := h.Users.Update(r.Context(), existing); err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// applyUserUpdate merges a partial update: absent fields leave the user
// unchanged, and explicit zeros (balance, limit, active) are honored.
func applyUserUpdate(u *users.User, req userReq) {
	if req.Role != "" {
		u.Role = req.Role
	}
	if req.CompanyName != "" {
		u.CompanyName = req.CompanyName
	}
	if req.StartingBalance != nil {
		u.StartingBalance = *req.StartingBalance
	}
	if req.CreditLimit != nil {
		u.CreditLimit = *req.CreditLimit
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
}

type passwordReq struct {
	Password string `json:"password"`
}

func (h *AdminHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordReq
	if !decode(r, &req) || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password of at least 8 characters required")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.WithError(err).Error("hash password")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.Users.UpdatePassword(r.Context(), chi.URLParam(r, "id"), hash); err != nil {
		domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- license keys ----

func (h *AdminHandler) listKeys(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id required")
		return
	}
	ks, err := h.Keys.List(r.Context(), productID)
	if err != nil {
		domainError(w, err)
		return
	}
	if ks == nil {
		ks = []licensekeys.Key{}
	}
	writeJSON(w, http.StatusOK, ks)
}

func (h *AdminHandler) keyCounts(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Keys.CountByProduct(r.Context())
	if err != nil {
		domainError(w, err)
		return
	}
	if cs == nil {
		cs = []licensekeys.Counts{}
	}
	writeJSON(w, http.StatusOK, cs)
}

type importKeysReq struct {
	ProductID string   `json:"product_id"`
	Keys      []string `json:"keys"`
}

func (h *AdminHandler) importKeys(w http.ResponseWriter, r *http.Request) {
	var req importKeysReq
	if !decode(r, &req) || req.ProductID == "" || len(req.Keys) == 0 {
		writeError(w, http.StatusBadRequest, "product_id and keys required")
		return
	}
	n, err := h.Keys.Import(r.Context(), req.ProductID, req.Keys)
	if err != nil {
		domainError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context(), "products") // available counts changed
	writeJSON(w, http.StatusOK, map[string]int{"imported": n, "skipped": len(req.Keys) - n})
}

// ---- orders ----

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	os, err := h.Orders.ListByTenant(r.Context(), r.URL.Query().Get("tenant"))
	if err != nil {
		domainError(w, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, os)
}
