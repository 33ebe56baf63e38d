package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/money"
)

type Order struct {
	ID            string       `json:"id"`
	OrderNumber   int64        `json:"order_number"`
	ExternalID    *string      `json:"external_id,omitempty"`
	UserID        string       `json:"user_id"`
	TenantID      string       `json:"tenant_id"`
	Currency      string       `json:"currency"`
	Status        Status       `json:"status"`
	PaymentStatus string       `json:"payment_status"`
	TotalAmount   money.Amount `json:"total_amount"`
	TaxAmount     money.Amount `json:"tax_amount"`
	FinalAmount   money.Amount `json:"final_amount"`
	FulfilledAt   *time.Time   `json:"fulfilled_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Item is one purchased unit. Every item consumes exactly one license key.
type Item struct {
	ID           string       `json:"id"`
	OrderID      string       `json:"order_id"`
	ProductID    string       `json:"product_id"`
	ProductName  string       `json:"product_name,omitempty"`
	LicenseKeyID string       `json:"license_key_id"`
	KeyValue     string       `json:"key_value,omitempty"`
	UnitPrice    money.Amount `json:"unit_price"`
}

// CartLine is the checkout view of a cart row: quantity plus the unit price
// already resolved for the tenant currency.
type CartLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// AllocatedKey is an unused license key claimed inside the checkout
// transaction.
type AllocatedKey struct {
	ID       string
	KeyValue string
}

// UserFunds is the locked snapshot of a buyer's wallet parameters.
type UserFunds struct {
	StartingBalance decimal.Decimal
	CreditLimit     decimal.Decimal
}
