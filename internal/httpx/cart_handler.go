package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/auth"
	"github.com/licenca-shop/licenca/internal/cart"
	"github.com/licenca-shop/licenca/internal/money"
	"github.com/licenca-shop/licenca/internal/tenant"
)

type CartStore interface {
	List(ctx context.Context, userID, tenantID string) ([]cart.Line, error)
	Add(ctx context.Context, userID, tenantID, productID string, qty int) error
	SetQuantity(ctx context.Context, userID, tenantID, productID string, qty int) error
	Remove(ctx context.Context, userID, tenantID, productID string) error
	Clear(ctx context.Context, userID, tenantID string) error
}

type CartHandler struct {
	Cart CartStore
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.list)
	r.Post("/cart", h.add)
	r.Put("/cart/{productID}", h.setQuantity)
	r.Delete("/cart/{productID}", h.remove)
	r.Delete("/cart", h.clear)
}

func session(r *http.Request) (auth.Session, tenant.Tenant) {
	sess, _ := auth.From(r.Context())
	t, _ := tenant.From(r.Context())
	return sess, t
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	sess, t := session(r)
	lines, err := h.Cart.List(r.Context(), sess.UserID, t.Code)
	if err != nil {
		domainError(w, err)
		return
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal.Decimal)
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    lines,
		"total":    money.New(total),
		"currency": t.Currency,
	})
}

type cartAddReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req cartAddReq
	if !decode(r, &req) || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id required")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be >= 1")
		return
	}
	sess, t := session(r)
	if err := h.Cart.Add(r.Context(), sess.UserID, t.Code, req.ProductID, req.Quantity); err != nil {
		domainError(w, err)
		return
	}
	h.list(w, r)
}

type cartQtyReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartQtyReq
	if !decode(r, &req) || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be >= 1")
		return
	}
	sess, t := session(r)
	if err := h.Cart.SetQuantity(r.Context(), sess.UserID, t.Code, chi.URLParam(r, "productID"), req.Quantity); err != nil {
		domainError(w, err)
		return
	}
	h.list(w, r)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	sess, t := session(r)
	if err := h.Cart.Remove(r.Context(), sess.UserID, t.Code, chi.URLParam(r, "productID")); err != nil {
		domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	sess, t := session(r)
	if err := h.Cart.Clear(r.Context(), sess.UserID, t.Code); err != nil {
		domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
