package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/money"
	"github.com/licenca-shop/licenca/internal/tenant"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
	ErrNotFound          = errors.New("order not found")
)

// ErrInsufficientKeys reports which product ran out of license keys.
type ErrInsufficientKeys struct {
	ProductID string
	Required  int
	Available int
}

func (e ErrInsufficientKeys) Error() string {
	return fmt.Sprintf("insufficient license keys for product %s: need %d, have %d",
		e.ProductID, e.Required, e.Available)
}

// CheckoutTx is the slice of storage the checkout needs, scoped to one
// database transaction.
type CheckoutTx interface {
	OrderByExternalID(ctx context.Context, externalID string) (Order, bool, error)
	// LockUser takes the buyer's row lock, serializing checkouts per user.
	LockUser(ctx context.Context, userID string) (UserFunds, error)
	CartLines(ctx context.Context, userID, tenantID string) ([]CartLine, error)
	// AllocateKeys claims up to n unused keys for the product and marks them
	// used. Fewer than n returned means the pool is short.
	AllocateKeys(ctx context.Context, productID, userID string, n int) ([]AllocatedKey, error)
	SpentCompleted(ctx context.Context, userID, tenantID string) (decimal.Decimal, error)
	InsertOrder(ctx context.Context, o *Order, items []Item) error
	ClearCart(ctx context.Context, userID, tenantID string) error
}

type CheckoutStore interface {
	WithTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}

type Service struct {
	Store CheckoutStore
}

// Checkout consumes the user's cart atomically: every unit gets one unused
// license key, totals carry 21% VAT, and the wallet headroom check runs in
// the same transaction as the order insert. Any shortfall rolls the whole
// thing back. A repeated external_id returns the original order.
func (s *Service) Checkout(ctx context.Context, userID string, t tenant.Tenant, externalID string) (Order, []Item, bool, error) {
	var (
		out     Order
		items   []Item
		existed bool
	)
	err := s.Store.WithTx(ctx, func(tx CheckoutTx) error {
		if externalID != "" {
			o, ok, err := tx.OrderByExternalID(ctx, externalID)
			if err != nil {
				return err
			}
			if ok {
				out, existed = o, true
				return nil
			}
		}

		funds, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}

		lines, err := tx.CartLines(ctx, userID, t.Code)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		orderID := uuid.NewString()
		for _, l := range lines {
			keys, err := tx.AllocateKeys(ctx, l.ProductID, userID, l.Quantity)
			if err != nil {
				return err
			}
			if len(keys) < l.Quantity {
				return ErrInsufficientKeys{
					ProductID: l.ProductID,
					Required:  l.Quantity,
					Available: len(keys),
				}
			}
			for _, k := range keys {
				items = append(items, Item{
					ID:           uuid.NewString(),
					OrderID:      orderID,
					ProductID:    l.ProductID,
					LicenseKeyID: k.ID,
					KeyValue:     k.KeyValue,
					UnitPrice:    money.New(l.UnitPrice),
				})
			}
		}

		totals := ComputeTotals(lines)
		spent, err := tx.SpentCompleted(ctx, userID, t.Code)
		if err != nil {
			return err
		}
		headroom := funds.StartingBalance.Sub(spent).Add(funds.CreditLimit)
		if totals.Final.GreaterThan(headroom) {
			return ErrInsufficientFunds
		}

		now := time.Now().UTC()
		out = Order{
			ID:            orderID,
			UserID:        userID,
			TenantID:      t.Code,
			Currency:      t.Currency,
			Status:        StatusCreated,
			PaymentStatus: PaymentCompleted,
			TotalAmount:   money.New(totals.Total),
			TaxAmount:     money.New(totals.Tax),
			FinalAmount:   money.New(totals.Final),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if externalID != "" {
			out.ExternalID = &externalID
		}
		if err := tx.InsertOrder(ctx, &out, items); err != nil {
			return err
		}
		return tx.ClearCart(ctx, userID, t.Code)
	})
	if err != nil {
		return Order{}, nil, false, err
	}
	if existed {
		return out, nil, true, nil
	}
	return out, items, false, nil
}
