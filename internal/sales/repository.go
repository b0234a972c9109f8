package sales

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercadito-erp/mercadito-erp/internal/catalog"
	"github.com/mercadito-erp/mercadito-erp/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed sales repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) GetProductsForUpdate(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, purchase_price, profit_pct,
			units_per_package, package_count, loose_units, category_id,
			created_at, updated_at
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]*catalog.Product, len(ids))
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PurchasePrice, &p.ProfitPct,
			&p.UnitsPerPackage, &p.PackageCount, &p.LooseUnits, &p.CategoryID,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products[p.ID] = &p
	}
	return products, rows.Err()
}

func (r *repository) UpdateProductStock(ctx context.Context, productID, packageCount, looseUnits int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET package_count = $2, loose_units = $3, updated_at = NOW()
		WHERE id = $1`, productID, packageCount, looseUnits)
	return err
}

func (r *repository) InsertSale(ctx context.Context, sale *Sale) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales (code, customer_id, is_credit, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		sale.Code, sale.CustomerID, sale.IsCredit, sale.Status, sale.Total, sale.CreatedAt).Scan(&id)
	return id, err
}

func (r *repository) InsertSaleLines(ctx context.Context, saleID int64, lines []Line) error {
	for _, line := range lines {
		_, err := r.db.Exec(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, product_name, quantity, sale_type, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			saleID, line.ProductID, line.ProductName, line.Quantity, line.SaleType, line.UnitPrice, line.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DebtorExists(ctx context.Context, debtorID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM debtors WHERE id = $1)`, debtorID).Scan(&exists)
	return exists, err
}

func (r *repository) InsertDebt(ctx context.Context, debt DebtRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO debts (debtor_id, sale_id, total, pending, status, due_date)
		VALUES ($1, $2, $3, $4, 'pendiente', $5)
		RETURNING id`,
		debt.DebtorID, debt.SaleID, debt.Total, debt.Total, debt.DueDate).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range debt.Lines {
		_, err := r.db.Exec(ctx, `
			INSERT INTO debt_lines (debt_id, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *repository) ListSales(ctx context.Context, limit int64) ([]Sale, error) {
	query := `
		SELECT id, code, customer_id, is_credit, status, total, created_at
		FROM sales
		ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sale
	byID := make(map[int64]int)
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.Code, &s.CustomerID, &s.IsCredit, &s.Status, &s.Total, &s.CreatedAt); err != nil {
			return nil, err
		}
		byID[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(out))
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	lineRows, err := r.db.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, sale_type, unit_price, subtotal
		FROM sale_lines
		WHERE sale_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var line Line
		var saleID int64
		if err := lineRows.Scan(&line.ID, &saleID, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.SaleType, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		if idx, ok := byID[saleID]; ok {
			out[idx].Lines = append(out[idx].Lines, line)
		}
	}
	return out, lineRows.Err()
}
