package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const categoryCols = `id, parent_id, name, slug, level, path, path_name, sort_order`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.Slug, &c.Level,
		&c.Path, &c.PathName, &c.SortOrder)
	return c, err
}

func (r *Repo) collectCategories(ctx context.Context, q string, args ...any) ([]Category, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	return r.collectCategories(ctx,
		`SELECT `+categoryCols+` FROM categories ORDER BY path`)
}

func (r *Repo) CategoriesByLevel(ctx context.Context, level int) ([]Category, error) {
	return r.collectCategories(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE level=$1 ORDER BY sort_order, name`, level)
}

func (r *Repo) CategoryChildren(ctx context.Context, parentID string) ([]Category, error) {
	return r.collectCategories(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE parent_id=$1 ORDER BY sort_order, name`, parentID)
}

func (r *Repo) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := scanCategory(r.DB.QueryRow(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

// CategoryPath returns the breadcrumb root->leaf using the materialized path
// prefix set instead of walking parent_id.
func (r *Repo) CategoryPath(ctx context.Context, id string) ([]Category, error) {
	c, err := r.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.collectCategories(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE path = ANY($1) ORDER BY level`,
		AncestorPaths(c.Path))
}

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	c.Level = 1
	c.Path = ChildPath("", c.Slug)
	c.PathName = c.Name
	if c.ParentID != nil {
		parent, err := r.GetCategory(ctx, *c.ParentID)
		if err != nil {
			return err
		}
		if parent.Level >= 3 {
			return ErrMaxDepth
		}
		c.Level = parent.Level + 1
		c.Path = ChildPath(parent.Path, c.Slug)
		c.PathName = ChildPathName(parent.PathName, c.Name)
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO categories(id, parent_id, name, slug, level, path, path_name, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.ParentID, c.Name, c.Slug, c.Level, c.Path, c.PathName, c.SortOrder)
	return errors.Wrap(err, "insert category")
}

// RenameCategory updates name/slug and rewrites the materialized path and
// path_name prefix of the whole subtree in one transaction.
func (r *Repo) RenameCategory(ctx context.Context, id, name string, sortOrder int) error {
	old, err := r.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	slug := Slugify(name)
	parentPath, parentPathName := "", ""
	if old.ParentID != nil {
		parent, err := r.GetCategory(ctx, *old.ParentID)
		if err != nil {
			return err
		}
		parentPath, parentPathName = parent.Path, parent.PathName
	}
	newPath := ChildPath(parentPath, slug)
	newPathName := ChildPathName(parentPathName, name)

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE categories SET name=$2, slug=$3, path=$4, path_name=$5, sort_order=$6
		WHERE id=$1`, id, name, slug, newPath, newPathName, sortOrder)
	if err != nil {
		return errors.Wrap(err, "rename category")
	}

	// rewrite the descendants (at most two levels below) with the new prefix
	rows, err := tx.Query(ctx, `
		SELECT id, path, path_name FROM categories
		WHERE path LIKE $1 || '/%' FOR UPDATE`, old.Path)
	if err != nil {
		return errors.Wrap(err, "load subtree")
	}
	type sub struct{ id, path, pathName string }
	var subtree []sub
	for rows.Next() {
		var s sub
		if err := rows.Scan(&s.id, &s.path, &s.pathName); err != nil {
			rows.Close()
			return err
		}
		subtree = append(subtree, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, s := range subtree {
		_, err := tx.Exec(ctx, `
			UPDATE categories SET path=$2, path_name=$3 WHERE id=$1`,
			s.id,
			RewritePrefix(s.path, old.Path, newPath),
			RewritePrefix(s.pathName, old.PathName, newPathName))
		if err != nil {
			return errors.Wrap(err, "rewrite subtree paths")
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) DeleteCategory(ctx context.Context, id string) error {
	var children, products int
	err := r.DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM categories WHERE parent_id=$1),
			(SELECT COUNT(*) FROM products WHERE category_id=$1)`, id).
		Scan(&children, &products)
	if err != nil {
		return errors.Wrap(err, "check category usage")
	}
	if children > 0 || products > 0 {
		return ErrCategoryInUse
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
