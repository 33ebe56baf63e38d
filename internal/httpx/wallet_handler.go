package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/licenca-shop/licenca/internal/tenant"
	"github.com/licenca-shop/licenca/internal/wallet"
)

type WalletService interface {
	Get(ctx context.Context, userID string, t tenant.Tenant) (wallet.Wallet, error)
	Transactions(ctx context.Context, userID string, t tenant.Tenant) ([]wallet.Transaction, error)
}

type WalletHandler struct {
	Wallet WalletService
}

func (h *WalletHandler) Register(r chi.Router) {
	r.Get("/wallet", h.get)
	r.Get("/wallet/transactions", h.transactions)
}

func (h *WalletHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, t := session(r)
	wl, err := h.Wallet.Get(r.Context(), sess.UserID, t)
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *WalletHandler) transactions(w http.ResponseWriter, r *http.Request) {
	sess, t := session(r)
	txs, err := h.Wallet.Transactions(r.Context(), sess.UserID, t)
	if err != nil {
		domainError(w, err)
		return
	}
	if txs == nil {
		txs = []wallet.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
