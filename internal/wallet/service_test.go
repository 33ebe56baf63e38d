package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licenca-shop/licenca/internal/money"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/tenant"
	"github.com/licenca-shop/licenca/internal/users"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func m(s string) money.Amount    { return money.New(d(s)) }

type stubUsers struct{ u users.User }

func (s stubUsers) GetByID(context.Context, string) (users.User, error) { return s.u, nil }

type stubOrders struct{ completed []orders.Order }

func (s stubOrders) SumCompleted(context.Context, string, string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range s.completed {
		sum = sum.Add(o.FinalAmount.Decimal)
	}
	return sum, nil
}

func (s stubOrders) ListCompleted(context.Context, string, string) ([]orders.Order, error) {
	return s.completed, nil
}

func TestBalance(t *testing.T) {
	t.Run("balance is starting minus spent", func(t *testing.T) {
		balance, available := Balance(d("100.00"), d("30.00"), d("50.00"))
		assert.True(t, balance.Equal(d("70.00")))
		assert.True(t, available.Equal(d("120.00")))
	})

	t.Run("reported balance clamps at zero, headroom does not", func(t *testing.T) {
		balance, available := Balance(d("100.00"), d("130.00"), d("50.00"))
		assert.True(t, balance.IsZero())
		assert.True(t, available.Equal(d("20.00")), "available = %s", available)
	})
}

func TestGet(t *testing.T) {
	svc := &Service{
		Users: stubUsers{u: users.User{ID: "u1", StartingBalance: m("100.00"), CreditLimit: m("25.00")}},
		Orders: stubOrders{completed: []orders.Order{
			{FinalAmount: m("24.20")},
			{FinalAmount: m("12.10")},
		}},
	}
	w, err := svc.Get(context.Background(), "u1", tenant.KM)
	require.NoError(t, err)
	assert.True(t, w.Spent.Equal(d("36.30")))
	assert.True(t, w.Balance.Equal(d("63.70")))
	assert.True(t, w.Available.Equal(d("88.70")))
	assert.Equal(t, "KM", w.Currency)
}

func TestTransactions(t *testing.T) {
	now := time.Now()
	svc := &Service{
		Users: stubUsers{u: users.User{ID: "u1", StartingBalance: m("100.00")}},
		// newest first, as the repo returns them
		Orders: stubOrders{completed: []orders.Order{
			{ID: "o2", OrderNumber: 2, FinalAmount: m("12.10"), CreatedAt: now},
			{ID: "o1", OrderNumber: 1, FinalAmount: m("24.20"), CreatedAt: now.Add(-time.Hour)},
		}},
	}
	txs, err := svc.Transactions(context.Background(), "u1", tenant.EUR)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "o2", txs[0].OrderID)
	assert.True(t, txs[0].Amount.Equal(d("-12.10")))
	assert.True(t, txs[0].BalanceAfter.Equal(d("63.70")), "newest reflects both debits")
	assert.True(t, txs[1].BalanceAfter.Equal(d("75.80")), "oldest reflects only itself")
	assert.Equal(t, "purchase", txs[1].Type)
}
