package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/money"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/tenant"
	"github.com/licenca-shop/licenca/internal/users"
)

// The wallet is derived state: there is no ledger table. Balance is the
// user's starting balance minus everything they have spent on completed
// orders for the tenant.

type OrderReader interface {
	SumCompleted(ctx context.Context, userID, tenantID string) (decimal.Decimal, error)
	ListCompleted(ctx context.Context, userID, tenantID string) ([]orders.Order, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Wallet struct {
	StartingBalance money.Amount `json:"starting_balance"`
	Spent           money.Amount `json:"spent"`
	Balance         money.Amount `json:"balance"`
	CreditLimit     money.Amount `json:"credit_limit"`
	Available       money.Amount `json:"available"`
	Currency        string       `json:"currency"`
}

// Transaction is synthesized from the orders table at read time.
type Transaction struct {
	OrderID      string       `json:"order_id"`
	OrderNumber  int64        `json:"order_number"`
	Type         string       `json:"type"`
	Amount       money.Amount `json:"amount"`
	BalanceAfter money.Amount `json:"balance_after"`
	CreatedAt    time.Time    `json:"created_at"`
}

type Service struct {
	Users  UserReader
	Orders OrderReader
}

// Balance computes the derived figures. The reported balance is clamped at
// zero; the unclamped headroom (balance + credit limit) is what checkout
// checks against.
func Balance(starting, spent, creditLimit decimal.Decimal) (balance, available decimal.Decimal) {
	raw := starting.Sub(spent)
	available = raw.Add(creditLimit)
	if raw.IsNegative() {
		raw = decimal.Zero
	}
	return raw, available
}

func (s *Service) Get(ctx context.Context, userID string, t tenant.Tenant) (Wallet, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return Wallet{}, err
	}
	spent, err := s.Orders.SumCompleted(ctx, userID, t.Code)
	if err != nil {
		return Wallet{}, err
	}
	balance, available := Balance(u.StartingBalance.Decimal, spent, u.CreditLimit.Decimal)
	return Wallet{
		StartingBalance: u.StartingBalance,
		Spent:           money.New(spent),
		Balance:         money.New(balance),
		CreditLimit:     u.CreditLimit,
		Available:       money.New(available),
		Currency:        t.Currency,
	}, nil
}

// Transactions rebuilds the spend history newest-first with a running
// balance, purely from completed orders.
func (s *Service) Transactions(ctx context.Context, userID string, t tenant.Tenant) ([]Transaction, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.Orders.ListCompleted(ctx, userID, t.Code)
	if err != nil {
		return nil, err
	}

	// orders arrive newest-first; walk oldest-first for the running balance
	running := u.StartingBalance.Decimal
	out := make([]Transaction, len(completed))
	for i := len(completed) - 1; i >= 0; i-- {
		o := completed[i]
		running = running.Sub(o.FinalAmount.Decimal)
		out[i] = Transaction{
			OrderID:      o.ID,
			OrderNumber:  o.OrderNumber,
			Type:         "purchase",
			Amount:       money.New(o.FinalAmount.Neg()),
			BalanceAfter: money.New(running),
			CreatedAt:    o.CreatedAt,
		}
	}
	return out, nil
}
