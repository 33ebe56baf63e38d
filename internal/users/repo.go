package users

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/licenca-shop/licenca/internal/money"
)

type Repo struct{ DB *pgxpool.Pool }

const userCols = `id, email, password_hash, role, tenant_id, company_name,
	starting_balance::text, credit_limit::text, is_active, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var start, limit string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.TenantID,
		&u.CompanyName, &start, &limit, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	startD, err := decimal.NewFromString(start)
	if err != nil {
		return User{}, errors.Wrap(err, "parse starting_balance")
	}
	limitD, err := decimal.NewFromString(limit)
	if err != nil {
		return User{}, errors.Wrap(err, "parse credit_limit")
	}
	u.StartingBalance = money.New(startD)
	u.CreditLimit = money.New(limitD)
	return u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) GetByID(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) List(ctx context.Context, tenantID string) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userCols+` FROM users WHERE tenant_id=$1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, u User) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO users(id, email, password_hash, role, tenant_id, company_name,
			starting_balance, credit_limit, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.TenantID, u.CompanyName,
		u.StartingBalance.StringFixed(2), u.CreditLimit.StringFixed(2), u.IsActive)
	return errors.Wrap(err, "insert user")
}

func (r *Repo) Update(ctx context.Context, u User) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET role=$2, company_name=$3, starting_balance=$4,
			credit_limit=$5, is_active=$6
		WHERE id=$1`,
		u.ID, u.Role, u.CompanyName,
		u.StartingBalance.StringFixed(2), u.CreditLimit.StringFixed(2), u.IsActive)
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) UpdatePassword(ctx context.Context, id, hash string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, id, hash)
	if err != nil {
		return errors.Wrap(err, "update password")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
