package catalog

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/money"
)

type Repo struct{ DB *pgxpool.Pool }

const productCols = `p.id, p.sku, p.name, p.description, p.category_id,
	p.price_eur::text, p.price_km::text, p.purchase_price::text,
	p.b2b_price::text, p.retail_price::text,
	p.region, p.platform, p.is_active, p.created_at, p.updated_at,
	COALESCE(k.available, 0)`

const productFrom = ` FROM products p
	LEFT JOIN (
		SELECT product_id, COUNT(*) AS available
		FROM license_keys WHERE NOT is_used GROUP BY product_id
	) k ON k.product_id = p.id`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var eur, km, purchase, b2b, retail string
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID,
		&eur, &km, &purchase, &b2b, &retail,
		&p.Region, &p.Platform, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&p.AvailableKeys)
	if err != nil {
		return Product{}, err
	}
	for _, f := range []struct {
		dst *money.Amount
		src string
	}{
		{&p.PriceEUR, eur}, {&p.PriceKM, km}, {&p.PurchasePrice, purchase},
		{&p.B2BPrice, b2b}, {&p.RetailPrice, retail},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return Product{}, errors.Wrap(err, "parse price")
		}
		*f.dst = money.New(d)
	}
	return p, nil
}

type ProductFilter struct {
	CategoryID string
	Query      string
	ActiveOnly bool
}

func (r *Repo) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	q := `SELECT ` + productCols + productFrom + ` WHERE 1=1`
	var args []any
	if f.ActiveOnly {
		q += ` AND p.is_active`
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		q += ` AND p.category_id = $` + itoa(len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := itoa(len(args))
		q += ` AND (p.name ILIKE $` + n + ` OR p.sku ILIKE $` + n + `)`
	}
	q += ` ORDER BY p.name`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productCols+productFrom+` WHERE p.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, sku, name, description, category_id,
			price_eur, price_km, purchase_price, b2b_price, retail_price,
			region, platform, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.SKU, p.Name, p.Description, p.CategoryID,
		p.PriceEUR.StringFixed(2), p.PriceKM.StringFixed(2),
		p.PurchasePrice.StringFixed(2), p.B2BPrice.StringFixed(2),
		p.RetailPrice.StringFixed(2), p.Region, p.Platform, p.IsActive)
	return errors.Wrap(err, "insert product")
}

func (r *Repo) UpdateProduct(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET sku=$2, name=$3, description=$4, category_id=$5,
			region=$6, platform=$7, is_active=$8, updated_at=now()
		WHERE id=$1`,
		p.ID, p.SKU, p.Name, p.Description, p.CategoryID,
		p.Region, p.Platform, p.IsActive)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type Pricing struct {
	PriceEUR      money.Amount `json:"price_eur"`
	PriceKM       money.Amount `json:"price_km"`
	PurchasePrice money.Amount `json:"purchase_price"`
	B2BPrice      money.Amount `json:"b2b_price"`
	RetailPrice   money.Amount `json:"retail_price"`
}

func (r *Repo) UpdatePricing(ctx context.Context, productID string, pr Pricing) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET price_eur=$2, price_km=$3, purchase_price=$4,
			b2b_price=$5, retail_price=$6, updated_at=now()
		WHERE id=$1`,
		productID, pr.PriceEUR.StringFixed(2), pr.PriceKM.StringFixed(2),
		pr.PurchasePrice.StringFixed(2), pr.B2BPrice.StringFixed(2),
		pr.RetailPrice.StringFixed(2))
	if err != nil {
		return errors.Wrap(err, "update pricing")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateProduct backs the admin DELETE: sold keys keep their foreign
// keys, so products are retired, not removed.
func (r *Repo) DeactivateProduct(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET is_active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "deactivate product")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
