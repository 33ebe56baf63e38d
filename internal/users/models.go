package users

import (
	"errors"
	"time"

	"github.com/licenca-shop/licenca/internal/money"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID              string       `json:"id"`
	Email           string       `json:"email"`
	PasswordHash    string       `json:"-"`
	Role            string       `json:"role"`
	TenantID        string       `json:"tenant_id"`
	CompanyName     string       `json:"company_name"`
	StartingBalance money.Amount `json:"starting_balance"`
	CreditLimit     money.Amount `json:"credit_limit"`
	IsActive        bool         `json:"is_active"`
	CreatedAt       time.Time    `json:"created_at"`
}
