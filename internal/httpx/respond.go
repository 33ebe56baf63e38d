package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/licenca-shop/licenca/internal/cart"
	"github.com/licenca-shop/licenca/internal/catalog"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/users"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// domainError maps domain sentinels onto HTTP codes; everything unrecognized
// is a 500.
func domainError(w http.ResponseWriter, err error) {
	var short orders.ErrInsufficientKeys
	switch {
	case err == nil:
		return
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, cart.ErrProductUnavailable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, catalog.ErrMaxDepth):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, catalog.ErrCategoryInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &short):
		writeError(w, http.StatusConflict, short.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
