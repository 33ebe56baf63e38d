package licensekeys

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type Key struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	KeyValue  string     `json:"key_value"`
	IsUsed    bool       `json:"is_used"`
	UsedBy    *string    `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Counts struct {
	ProductID string `json:"product_id"`
	Total     int    `json:"total"`
	Used      int    `json:"used"`
	Available int    `json:"available"`
}

// Repo covers the admin side of the key pool. Allocation at checkout happens
// inside the order transaction, not here.
type Repo struct{ DB *pgxpool.Pool }

// Import bulk-inserts key values for a product, skipping values already in
// the pool. Returns the number actually inserted.
func (r *Repo) Import(ctx context.Context, productID string, values []string) (int, error) {
	inserted := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		ct, err := r.DB.Exec(ctx, `
			INSERT INTO license_keys(id, product_id, key_value)
			VALUES ($1, $2, $3)
			ON CONFLICT (key_value) DO NOTHING`,
			uuid.NewString(), productID, v)
		if err != nil {
			return inserted, errors.Wrap(err, "import key")
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

func (r *Repo) List(ctx context.Context, productID string) ([]Key, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, key_value, is_used, used_by, used_at, created_at
		FROM license_keys WHERE product_id=$1
		ORDER BY is_used, created_at`, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.ID, &k.ProductID, &k.KeyValue, &k.IsUsed,
			&k.UsedBy, &k.UsedAt, &k.CreatedAt); err != nil {
			return nil, err
		}
		if k.IsUsed {
			k.KeyValue = Mask(k.KeyValue)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *Repo) CountByProduct(ctx context.Context) ([]Counts, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, COUNT(*),
			COUNT(*) FILTER (WHERE is_used),
			COUNT(*) FILTER (WHERE NOT is_used)
		FROM license_keys GROUP BY product_id`)
	if err != nil {
		return nil, errors.Wrap(err, "count keys")
	}
	defer rows.Close()

	var out []Counts
	for rows.Next() {
		var c Counts
		if err := rows.Scan(&c.ProductID, &c.Total, &c.Used, &c.Available); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Mask hides all but the last group of a sold key, e.g. "****-****-1A2B".
func Mask(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return "****-****-" + v[len(v)-4:]
}
