package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/money"
)

var ErrUserUnavailable = errors.New("user missing or inactive")

// Repo is the pgx implementation of order storage, including the checkout
// transaction.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) WithTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(&pgxTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgxTx struct{ tx pgx.Tx }

const orderCols = `id, order_number, external_id, user_id, tenant_id, currency,
	status, payment_status, total_amount::text, tax_amount::text,
	final_amount::text, fulfilled_at, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var total, tax, final string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.ExternalID, &o.UserID, &o.TenantID,
		&o.Currency, &o.Status, &o.PaymentStatus, &total, &tax, &final,
		&o.FulfilledAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	for _, f := range []struct {
		dst  *money.Amount
		src  string
		name string
	}{
		{&o.TotalAmount, total, "total"}, {&o.TaxAmount, tax, "tax"},
		{&o.FinalAmount, final, "final"},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return Order{}, errors.Wrapf(err, "parse %s", f.name)
		}
		*f.dst = money.New(d)
	}
	return o, nil
}

func (t *pgxTx) OrderByExternalID(ctx context.Context, externalID string) (Order, bool, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE external_id=$1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

func (t *pgxTx) LockUser(ctx context.Context, userID string) (UserFunds, error) {
	var start, limit string
	err := t.tx.QueryRow(ctx, `
		SELECT starting_balance::text, credit_limit::text
		FROM users WHERE id=$1 AND is_active FOR UPDATE`, userID).
		Scan(&start, &limit)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserFunds{}, ErrUserUnavailable
	}
	if err != nil {
		return UserFunds{}, err
	}
	var f UserFunds
	if f.StartingBalance, err = decimal.NewFromString(start); err != nil {
		return UserFunds{}, errors.Wrap(err, "parse starting_balance")
	}
	if f.CreditLimit, err = decimal.NewFromString(limit); err != nil {
		return UserFunds{}, errors.Wrap(err, "parse credit_limit")
	}
	return f, nil
}

func (t *pgxTx) CartLines(ctx context.Context, userID, tenantID string) ([]CartLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT c.product_id, c.quantity,
			(CASE WHEN c.tenant_id='KM' THEN p.price_km ELSE p.price_eur END)::text
		FROM cart_items c
		JOIN products p ON p.id = c.product_id AND p.is_active
		WHERE c.user_id=$1 AND c.tenant_id=$2
		ORDER BY c.created_at`, userID, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart lines")
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		var price string
		if err := rows.Scan(&l.ProductID, &l.Quantity, &price); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, errors.Wrap(err, "parse price")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AllocateKeys claims up to n unused keys with SKIP LOCKED so concurrent
// checkouts never race for the same key; a short result means the pool ran
// out and the caller rolls back.
func (t *pgxTx) AllocateKeys(ctx context.Context, productID, userID string, n int) ([]AllocatedKey, error) {
	rows, err := t.tx.Query(ctx, `
		UPDATE license_keys SET is_used=true, used_by=$2, used_at=now()
		WHERE id IN (
			SELECT id FROM license_keys
			WHERE product_id=$1 AND NOT is_used
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, key_value`, productID, userID, n)
	if err != nil {
		return nil, errors.Wrap(err, "allocate keys")
	}
	defer rows.Close()

	var out []AllocatedKey
	for rows.Next() {
		var k AllocatedKey
		if err := rows.Scan(&k.ID, &k.KeyValue); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (t *pgxTx) SpentCompleted(ctx context.Context, userID, tenantID string) (decimal.Decimal, error) {
	return sumCompleted(ctx, t.tx, userID, tenantID)
}

func (t *pgxTx) InsertOrder(ctx context.Context, o *Order, items []Item) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders(id, external_id, user_id, tenant_id, currency,
			status, payment_status, total_amount, tax_amount, final_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING order_number`,
		o.ID, o.ExternalID, o.UserID, o.TenantID, o.Currency,
		o.Status, o.PaymentStatus,
		o.TotalAmount.StringFixed(2), o.TaxAmount.StringFixed(2),
		o.FinalAmount.StringFixed(2)).Scan(&o.OrderNumber)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}
	for _, it := range items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, license_key_id, unit_price)
			VALUES ($1,$2,$3,$4,$5)`,
			it.ID, it.OrderID, it.ProductID, it.LicenseKeyID,
			it.UnitPrice.StringFixed(2))
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return nil
}

func (t *pgxTx) ClearCart(ctx context.Context, userID, tenantID string) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id=$1 AND tenant_id=$2`, userID, tenantID)
	return errors.Wrap(err, "clear cart")
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumCompleted(ctx context.Context, q querier, userID, tenantID string) (decimal.Decimal, error) {
	var s string
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(final_amount), 0)::text
		FROM orders
		WHERE user_id=$1 AND tenant_id=$2 AND payment_status=$3`,
		userID, tenantID, PaymentCompleted).Scan(&s)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sum completed orders")
	}
	return decimal.NewFromString(s)
}

// ---- reads outside the checkout transaction ----

func (r *Repo) SumCompleted(ctx context.Context, userID, tenantID string) (decimal.Decimal, error) {
	return sumCompleted(ctx, r.DB, userID, tenantID)
}

func (r *Repo) collect(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userID, tenantID string) ([]Order, error) {
	return r.collect(ctx,
		`SELECT `+orderCols+` FROM orders WHERE user_id=$1 AND tenant_id=$2 ORDER BY created_at DESC`,
		userID, tenantID)
}

func (r *Repo) ListCompleted(ctx context.Context, userID, tenantID string) ([]Order, error) {
	return r.collect(ctx,
		`SELECT `+orderCols+` FROM orders
		WHERE user_id=$1 AND tenant_id=$2 AND payment_status=$3
		ORDER BY created_at DESC`,
		userID, tenantID, PaymentCompleted)
}

func (r *Repo) ListByTenant(ctx context.Context, tenantID string) ([]Order, error) {
	if tenantID == "" {
		return r.collect(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
	}
	return r.collect(ctx,
		`SELECT `+orderCols+` FROM orders WHERE tenant_id=$1 ORDER BY created_at DESC`, tenantID)
}

// Get loads one order with its items; license key values are revealed here
// since this is the fulfillment view.
func (r *Repo) Get(ctx context.Context, orderID string) (Order, []Item, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, ErrNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, p.name, i.license_key_id,
			k.key_value, i.unit_price::text
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		JOIN license_keys k ON k.id = i.license_key_id
		WHERE i.order_id=$1
		ORDER BY p.name, i.id`, orderID)
	if err != nil {
		return Order{}, nil, errors.Wrap(err, "list order items")
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.LicenseKeyID, &it.KeyValue, &price); err != nil {
			return Order{}, nil, err
		}
		unit, err := decimal.NewFromString(price)
		if err != nil {
			return Order{}, nil, errors.Wrap(err, "parse unit price")
		}
		it.UnitPrice = money.New(unit)
		items = append(items, it)
	}
	return o, items, rows.Err()
}

func (r *Repo) GetStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// MarkFulfilled flips CREATED -> COMPLETED once; repeat deliveries are no-ops.
func (r *Repo) MarkFulfilled(ctx context.Context, orderID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, fulfilled_at=now(), updated_at=now()
		WHERE id=$1 AND status=$3`,
		orderID, StatusCompleted, StatusCreated)
	if err != nil {
		return false, errors.Wrap(err, "mark fulfilled")
	}
	return ct.RowsAffected() == 1, nil
}
