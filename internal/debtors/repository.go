package debtors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercadito-erp/mercadito-erp/internal/platform/db"
	"github.com/mercadito-erp/mercadito-erp/internal/shared"
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

// NewRepository builds the PostgreSQL-backed debtors repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const debtorColumns = `id, name, surname, phone, address, email, created_at, updated_at`

func scanDebtor(row pgx.Row) (*Debtor, error) {
	var d Debtor
	err := row.Scan(&d.ID, &d.Name, &d.Surname, &d.Phone, &d.Address, &d.Email,
		&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) CreateDebtor(ctx context.Context, d Debtor) (*Debtor, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO debtors (name, surname, phone, address, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING `+debtorColumns,
		d.Name, d.Surname, d.Phone, d.Address, d.Email)
	return scanDebtor(row)
}

func (r *repository) GetDebtor(ctx context.Context, id int64) (*Debtor, error) {
	row := r.db.QueryRow(ctx, `SELECT `+debtorColumns+` FROM debtors WHERE id = $1`, id)
	debtor, err := scanDebtor(row)
	if err != nil {
		return nil, err
	}
	debts, err := r.loadDebts(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	debtor.Debts = debts[id]
	return debtor, nil
}

func (r *repository) ListDebtors(ctx context.Context) ([]Debtor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+debtorColumns+` FROM debtors ORDER BY name, surname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Debtor
	var ids []int64
	for rows.Next() {
		var d Debtor
		if err := rows.Scan(&d.ID, &d.Name, &d.Surname, &d.Phone, &d.Address, &d.Email,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	debts, err := r.loadDebts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Debts = debts[out[i].ID]
	}
	return out, nil
}

func (r *repository) UpdateDebtor(ctx context.Context, d Debtor) (*Debtor, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE debtors
		SET name = $2, surname = $3, phone = $4, address = $5, email = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+debtorColumns,
		d.ID, d.Name, d.Surname, d.Phone, d.Address, d.Email)
	return scanDebtor(row)
}

func (r *repository) DeleteDebtor(ctx context.Context, id int64) error {
	// debts, debt_lines and debt_payments cascade via FK.
	tag, err := r.db.Exec(ctx, `DELETE FROM debtors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const debtColumns = `id, debtor_id, sale_id, total, pending, status, due_date, overdue_at, created_at`

func scanDebt(row pgx.Row) (*Debt, error) {
	var d Debt
	err := row.Scan(&d.ID, &d.DebtorID, &d.SaleID, &d.Total, &d.Pending, &d.Status,
		&d.DueDate, &d.OverdueAt, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) GetDebtBySale(ctx context.Context, saleID int64) (*Debt, error) {
	row := r.db.QueryRow(ctx, `SELECT `+debtColumns+` FROM debts WHERE sale_id = $1`, saleID)
	debt, err := scanDebt(row)
	if err != nil {
		return nil, err
	}
	return r.hydrateDebt(ctx, debt)
}

func (r *repository) GetDebtForUpdate(ctx context.Context, debtorID, debtID int64) (*Debt, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE id = $1 AND debtor_id = $2
		FOR UPDATE`, debtID, debtorID)
	debt, err := scanDebt(row)
	if err != nil {
		return nil, err
	}
	return r.hydrateDebt(ctx, debt)
}

func (r *repository) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO debt_payments (debt_id, amount, description, method, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.DebtID, p.Amount, p.Description, p.Method, p.CreatedAt).Scan(&id)
	return id, err
}

func (r *repository) UpdateDebtBalance(ctx context.Context, debtID int64, pending float64, status DebtStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE debts
		SET pending = $2, status = $3
		WHERE id = $1`, debtID, pending, status)
	return err
}

func (r *repository) hydrateDebt(ctx context.Context, debt *Debt) (*Debt, error) {
	if _, err := r.loadLinesAndPayments(ctx, map[int64]*Debt{debt.ID: debt}); err != nil {
		return nil, err
	}
	return debt, nil
}

// loadDebts fetches debts with lines and payments for a set of debtors.
func (r *repository) loadDebts(ctx context.Context, debtorIDs []int64) (map[int64][]Debt, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE debtor_id = ANY($1)
		ORDER BY created_at DESC`, debtorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*Debt)
	order := make(map[int64][]int64)
	for rows.Next() {
		var d Debt
		if err := rows.Scan(&d.ID, &d.DebtorID, &d.SaleID, &d.Total, &d.Pending, &d.Status,
			&d.DueDate, &d.OverdueAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		byID[d.ID] = &d
		order[d.DebtorID] = append(order[d.DebtorID], d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(byID) == 0 {
		return map[int64][]Debt{}, nil
	}

	if _, err := r.loadLinesAndPayments(ctx, byID); err != nil {
		return nil, err
	}

	out := make(map[int64][]Debt, len(order))
	for debtorID, debtIDs := range order {
		for _, debtID := range debtIDs {
			out[debtorID] = append(out[debtorID], *byID[debtID])
		}
	}
	return out, nil
}

func (r *repository) loadLinesAndPayments(ctx context.Context, debts map[int64]*Debt) (map[int64]*Debt, error) {
	ids := make([]int64, 0, len(debts))
	for id := range debts {
		ids = append(ids, id)
	}

	lineRows, err := r.db.Query(ctx, `
		SELECT id, debt_id, product_id, product_name, quantity, unit_price, subtotal
		FROM debt_lines
		WHERE debt_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line DebtLine
		var debtID int64
		if err := lineRows.Scan(&line.ID, &debtID, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		if d, ok := debts[debtID]; ok {
			d.Lines = append(d.Lines, line)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	paymentRows, err := r.db.Query(ctx, `
		SELECT id, debt_id, amount, description, method, created_at
		FROM debt_payments
		WHERE debt_id = ANY($1)
		ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, err
	}
	defer paymentRows.Close()
	for paymentRows.Next() {
		var p Payment
		if err := paymentRows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.Description, &p.Method,
			&p.CreatedAt); err != nil {
			return nil, err
		}
		if d, ok := debts[p.DebtID]; ok {
			d.Payments = append(d.Payments, p)
		}
	}
	return debts, paymentRows.Err()
}
