package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/money"
)

var (
	ErrProductUnavailable = errors.New("product unavailable")
	ErrLineNotFound       = errors.New("cart line not found")
)

// Line is one (user, tenant, product) cart row joined with the product it
// points at, priced in the tenant currency.
type Line struct {
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	SKU         string       `json:"sku"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
	LineTotal   money.Amount `json:"line_total"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) List(ctx context.Context, userID, tenantID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.product_id, p.name, p.sku, c.quantity,
			(CASE WHEN c.tenant_id='KM' THEN p.price_km ELSE p.price_eur END)::text
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id=$1 AND c.tenant_id=$2
		ORDER BY c.created_at`, userID, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list cart")
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		var price string
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.SKU, &l.Quantity, &price); err != nil {
			return nil, err
		}
		unit, err := decimal.NewFromString(price)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "parse price")
		}
		l.UnitPrice = money.New(unit)
		l.LineTotal = money.New(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add inserts a cart line, merging quantity when the (user, tenant, product)
// row already exists. Inactive or unknown products are rejected.
func (r *Repo) Add(ctx context.Context, userID, tenantID, productID string, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items(user_id, tenant_id, product_id, quantity)
		SELECT $1, $2, p.id, $4 FROM products p WHERE p.id=$3 AND p.is_active
		ON CONFLICT (user_id, tenant_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()`,
		userID, tenantID, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(err, "add to cart")
	}
	if ct.RowsAffected() == 0 {
		return ErrProductUnavailable
	}
	return nil
}

func (r *Repo) SetQuantity(ctx context.Context, userID, tenantID, productID string, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET quantity=$4, updated_at=now()
		WHERE user_id=$1 AND tenant_id=$2 AND product_id=$3`,
		userID, tenantID, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(err, "set cart quantity")
	}
	if ct.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, tenantID, productID string) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id=$1 AND tenant_id=$2 AND product_id=$3`,
		userID, tenantID, productID)
	if err != nil {
		return pkgerrors.Wrap(err, "remove cart line")
	}
	if ct.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID, tenantID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id=$1 AND tenant_id=$2`, userID, tenantID)
	return pkgerrors.Wrap(err, "clear cart")
}
