package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// ListFilter narrows product listings.
type ListFilter struct {
	// Category filters by category id; Uncategorized selects products
	// without a category (the `categoria=none` query).
	Category      *int64
	Uncategorized bool
}

// Repository defines data access for the product catalog.
type Repository interface {
	Create(ctx context.Context, p Product) (*Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Update(ctx context.Context, p Product) (*Product, error)
	Delete(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c Category) (*Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, c Category) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository builds the PostgreSQL-backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const productColumns = `id, name, description, purchase_price, profit_pct,
	units_per_package, package_count, loose_units, category_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PurchasePrice, &p.ProfitPct,
		&p.UnitsPerPackage, &p.PackageCount, &p.LooseUnits, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p Product) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO products (name, description, purchase_price, profit_pct,
			units_per_package, package_count, loose_units, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		p.Name, p.Description, p.PurchasePrice, p.ProfitPct,
		p.UnitsPerPackage, p.PackageCount, p.LooseUnits, p.CategoryID)
	return scanProduct(row)
}

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []any
	switch {
	case filter.Uncategorized:
		query += ` WHERE category_id IS NULL`
	case filter.Category != nil:
		query += ` WHERE category_id = $1`
		args = append(args, *filter.Category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *repository) Update(ctx context.Context, p Product) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, purchase_price = $4, profit_pct = $5,
			units_per_package = $6, package_count = $7, loose_units = $8,
			category_id = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.PurchasePrice, p.ProfitPct,
		p.UnitsPerPackage, p.PackageCount, p.LooseUnits, p.CategoryID)
	return scanProduct(row)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const categoryColumns = `id, name, description, color, icon, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) CreateCategory(ctx context.Context, c Category) (*Category, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO categories (name, description, color, icon)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		c.Name, c.Description, c.Color, c.Icon)
	return scanCategory(row)
}

func (r *repository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	row := r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *repository) UpdateCategory(ctx context.Context, c Category) (*Category, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, description = $3, color = $4, icon = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.Description, c.Color, c.Icon)
	return scanCategory(row)
}

func (r *repository) DeleteCategory(ctx context.Context, id int64) error {
	// Products keep existing; the foreign key is ON DELETE SET NULL.
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
