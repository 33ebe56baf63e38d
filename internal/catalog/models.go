package catalog

import (
	"errors"
	"time"

	"github.com/licenca-shop/licenca/internal/money"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrMaxDepth      = errors.New("category tree is limited to 3 levels")
	ErrCategoryInUse = errors.New("category has children or products")
)

type Product struct {
	ID            string       `json:"id"`
	SKU           string       `json:"sku"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	CategoryID    *string      `json:"category_id,omitempty"`
	PriceEUR      money.Amount `json:"price_eur"`
	PriceKM       money.Amount `json:"price_km"`
	PurchasePrice money.Amount `json:"purchase_price"`
	B2BPrice      money.Amount `json:"b2b_price"`
	RetailPrice   money.Amount `json:"retail_price"`
	Region        string       `json:"region"`
	Platform      string       `json:"platform"`
	IsActive      bool         `json:"is_active"`
	AvailableKeys int          `json:"available_keys"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// UnitPrice returns the storefront price for a tenant. The EUR storefront
// sells at price_eur, the KM storefront at price_km.
func (p Product) UnitPrice(tenantCode string) money.Amount {
	if tenantCode == "KM" {
		return p.PriceKM
	}
	return p.PriceEUR
}

type Category struct {
	ID        string  `json:"id"`
	ParentID  *string `json:"parent_id,omitempty"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Level     int     `json:"level"`
	Path      string  `json:"path"`
	PathName  string  `json:"path_name"`
	SortOrder int     `json:"sort_order"`
}

type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}
