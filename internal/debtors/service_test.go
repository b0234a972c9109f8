package debtors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercadito-erp/mercadito-erp/internal/catalog"
	"github.com/mercadito-erp/mercadito-erp/internal/sales"
	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// ledger is shared in-memory state; salesRepo and debtorsRepo expose it
// through the two repository ports so AddDebt exercises the real sale engine.
type ledger struct {
	products map[int64]*catalog.Product
	debtors  map[int64]*Debtor
	debts    map[int64]*Debt
	sales    []sales.Sale
	nextID   int64
}

func newLedger() *ledger {
	return &ledger{
		products: make(map[int64]*catalog.Product),
		debtors:  make(map[int64]*Debtor),
		debts:    make(map[int64]*Debt),
	}
}

func (l *ledger) id() int64 {
	l.nextID++
	return l.nextID
}

type salesRepo struct{ *ledger }

func (r salesRepo) WithTx(ctx context.Context, fn func(context.Context, sales.TxRepository) error) error {
	return fn(ctx, r)
}

func (r salesRepo) GetProductsForUpdate(_ context.Context, ids []int64) (map[int64]*catalog.Product, error) {
	out := make(map[int64]*catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			clone := *p
			out[id] = &clone
		}
	}
	return out, nil
}

func (r salesRepo) UpdateProductStock(_ context.Context, productID, packageCount, looseUnits int64) error {
	p := r.products[productID]
	p.PackageCount = packageCount
	p.LooseUnits = looseUnits
	return nil
}

func (r salesRepo) InsertSale(_ context.Context, sale *sales.Sale) (int64, error) {
	id := r.id()
	stored := *sale
	stored.ID = id
	r.ledger.sales = append(r.ledger.sales, stored)
	return id, nil
}

func (r salesRepo) InsertSaleLines(_ context.Context, _ int64, _ []sales.Line) error {
	return nil
}

func (r salesRepo) DebtorExists(_ context.Context, debtorID int64) (bool, error) {
	_, ok := r.ledger.debtors[debtorID]
	return ok, nil
}

func (r salesRepo) InsertDebt(_ context.Context, record sales.DebtRecord) (int64, error) {
	id := r.id()
	saleID := record.SaleID
	debt := &Debt{
		ID:        id,
		DebtorID:  record.DebtorID,
		SaleID:    &saleID,
		Total:     record.Total,
		Pending:   record.Total,
		Status:    DebtStatusPending,
		DueDate:   record.DueDate,
		CreatedAt: time.Now().UTC(),
	}
	for _, line := range record.Lines {
		debt.Lines = append(debt.Lines, DebtLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
		})
	}
	r.debts[id] = debt
	return id, nil
}

func (r salesRepo) ListSales(_ context.Context, _ int64) ([]sales.Sale, error) {
	return r.ledger.sales, nil
}

type debtorsRepo struct{ *ledger }

func (r debtorsRepo) CreateDebtor(_ context.Context, d Debtor) (*Debtor, error) {
	d.ID = r.id()
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	clone := d
	r.debtors[d.ID] = &clone
	return &d, nil
}

func (r debtorsRepo) GetDebtor(_ context.Context, id int64) (*Debtor, error) {
	d, ok := r.debtors[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *d
	out.Debts = nil
	for _, debt := range r.debts {
		if debt.DebtorID == id {
			out.Debts = append(out.Debts, *debt)
		}
	}
	return &out, nil
}

func (r debtorsRepo) ListDebtors(ctx context.Context) ([]Debtor, error) {
	var out []Debtor
	for id := int64(1); id <= r.nextID; id++ {
		if _, ok := r.debtors[id]; ok {
			d, err := r.GetDebtor(ctx, id)
			if err != nil {
				return nil, err
			}
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r debtorsRepo) UpdateDebtor(_ context.Context, d Debtor) (*Debtor, error) {
	stored, ok := r.debtors[d.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	d.CreatedAt = stored.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	clone := d
	r.debtors[d.ID] = &clone
	return &d, nil
}

func (r debtorsRepo) DeleteDebtor(_ context.Context, id int64) error {
	if _, ok := r.debtors[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.debtors, id)
	for debtID, debt := range r.debts {
		if debt.DebtorID == id {
			delete(r.debts, debtID)
		}
	}
	return nil
}

func (r debtorsRepo) GetDebtBySale(_ context.Context, saleID int64) (*Debt, error) {
	for _, debt := range r.debts {
		if debt.SaleID != nil && *debt.SaleID == saleID {
			out := *debt
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r debtorsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]*Debt, len(r.debts))
	for id, debt := range r.debts {
		clone := *debt
		clone.Payments = append([]Payment(nil), debt.Payments...)
		snapshot[id] = &clone
	}
	if err := fn(ctx, r); err != nil {
		r.ledger.debts = snapshot
		return err
	}
	return nil
}

func (r debtorsRepo) GetDebtForUpdate(_ context.Context, debtorID, debtID int64) (*Debt, error) {
	debt, ok := r.debts[debtID]
	if !ok || debt.DebtorID != debtorID {
		return nil, shared.ErrNotFound
	}
	out := *debt
	return &out, nil
}

func (r debtorsRepo) InsertPayment(_ context.Context, p Payment) (int64, error) {
	debt, ok := r.debts[p.DebtID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	p.ID = r.id()
	debt.Payments = append(debt.Payments, p)
	return p.ID, nil
}

func (r debtorsRepo) UpdateDebtBalance(_ context.Context, debtID int64, pending float64, status DebtStatus) error {
	debt, ok := r.debts[debtID]
	if !ok {
		return shared.ErrNotFound
	}
	debt.Pending = pending
	debt.Status = status
	return nil
}

type memoryIdem struct{ keys map[string]bool }

func newMemoryIdem() *memoryIdem { return &memoryIdem{keys: make(map[string]bool)} }

func (m *memoryIdem) CheckAndInsert(_ context.Context, key, _ string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdem) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func newTestService(t *testing.T) (*Service, *ledger, *memoryIdem) {
	t.Helper()
	state := newLedger()
	state.products[1] = &catalog.Product{
		ID:              1,
		Name:            "Harina PAN",
		PurchasePrice:   10,
		ProfitPct:       20,
		UnitsPerPackage: 5,
		PackageCount:    2,
		LooseUnits:      2,
	}
	idem := newMemoryIdem()
	saleEngine := sales.NewService(salesRepo{state})
	return NewService(debtorsRepo{state}, saleEngine, idem), state, idem
}

func seedDebtor(t *testing.T, svc *Service) *Debtor {
	t.Helper()
	d, err := svc.CreateDebtor(context.Background(), DebtorInput{Name: "María", Surname: "Pérez"})
	require.NoError(t, err)
	return d
}

func seedDebt(t *testing.T, svc *Service, debtorID int64, quantity int64) *Debt {
	t.Helper()
	debt, err := svc.AddDebt(context.Background(), debtorID,
		[]sales.LineInput{{ProductID: 1, Quantity: quantity}}, nil)
	require.NoError(t, err)
	return debt
}

func TestCreateDebtorValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateDebtor(context.Background(), DebtorInput{Surname: "Pérez"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateDebtor(context.Background(), DebtorInput{Name: "María"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDebtorPlaceholderEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	d := seedDebtor(t, svc)
	require.Equal(t, PlaceholderEmail, d.Email)

	withEmail, err := svc.CreateDebtor(context.Background(), DebtorInput{
		Name: "José", Surname: "García", Email: "jose@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "jose@example.com", withEmail.Email)
}

func TestAddDebtRoutesThroughSaleEngine(t *testing.T) {
	svc, state, _ := newTestService(t)
	debtor := seedDebtor(t, svc)

	debt := seedDebt(t, svc, debtor.ID, 4)

	// unit price 2.40, 4 units
	require.InDelta(t, 9.60, debt.Total, 1e-9)
	require.InDelta(t, debt.Total, debt.Pending, 1e-9)
	require.Equal(t, DebtStatusPending, debt.Status)
	require.NotNil(t, debt.SaleID)
	require.Len(t, debt.Lines, 1)

	// Stock moved through the same reconciliation as a cash sale.
	require.Equal(t, int64(1), state.products[1].PackageCount)
	require.Equal(t, int64(3), state.products[1].LooseUnits)

	// The backing sale is a pending credit sale for the debtor.
	require.Len(t, state.sales, 1)
	require.Equal(t, sales.SaleStatusPending, state.sales[0].Status)
	require.NotNil(t, state.sales[0].CustomerID)
	require.Equal(t, debtor.ID, *state.sales[0].CustomerID)
}

func TestAddDebtUnknownDebtor(t *testing.T) {
	svc, state, _ := newTestService(t)

	_, err := svc.AddDebt(context.Background(), 99,
		[]sales.LineInput{{ProductID: 1, Quantity: 1}}, nil)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, int64(2), state.products[1].PackageCount)
	require.Empty(t, state.sales)
}

func TestAddDebtInsufficientStock(t *testing.T) {
	svc, state, _ := newTestService(t)
	debtor := seedDebtor(t, svc)

	_, err := svc.AddDebt(context.Background(), debtor.ID,
		[]sales.LineInput{{ProductID: 1, Quantity: 50}}, nil)
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Empty(t, state.debts)
}

func TestAddPaymentPartialThenPaid(t *testing.T) {
	svc, _, _ := newTestService(t)
	debtor := seedDebtor(t, svc)
	debt := seedDebt(t, svc, debtor.ID, 4) // total 9.60

	after, err := svc.AddPayment(context.Background(), debtor.ID, debt.ID, PaymentInput{Amount: 4.60})
	require.NoError(t, err)
	require.InDelta(t, 5.00, after.Pending, 1e-9)
	require.Equal(t, DebtStatusPending, after.Status)
	require.Len(t, after.Payments, 1)

	settled, err := svc.AddPayment(context.Background(), debtor.ID, debt.ID, PaymentInput{Amount: 5.00})
	require.NoError(t, err)
	require.Zero(t, settled.Pending)
	require.Equal(t, DebtStatusPaid, settled.Status)
	require.Len(t, settled.Payments, 2)

	// Total is immutable; only pending moved.
	require.InDelta(t, 9.60, settled.Total, 1e-9)
}

func TestAddPaymentRejectsOverpayment(t *testing.T) {
	svc, state, _ := newTestService(t)
	debtor := seedDebtor(t, svc)
	debt := seedDebt(t, svc, debtor.ID, 4)

	_, err := svc.AddPayment(context.Background(), debtor.ID, debt.ID, PaymentInput{Amount: 100})
	var excess *shared.ExcessPaymentError
	require.ErrorAs(t, err, &excess)
	require.InDelta(t, 100.0, excess.Amount, 1e-9)
	require.InDelta(t, 9.60, excess.Pending, 1e-9)

	// Balance and history untouched.
	stored := state.debts[debt.ID]
	require.InDelta(t, 9.60, stored.Pending, 1e-9)
	require.Equal(t, DebtStatusPending, stored.Status)
	require.Empty(t, stored.Payments)
}

func TestAddPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService(t)
	debtor := seedDebtor(t, svc)
	debt := seedDebt(t, svc, debtor.ID, 1)

	_, err := svc.AddPayment(context.Background(), debtor.ID, debt.ID, PaymentInput{Amount: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.AddPayment(context.Background(), debtor.ID, debt.ID, PaymentInput{Amount: -5})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAddPaymentUnknownDebt(t *testing.T) {
	svc, _, _ := newTestService(t)
	debtor := seedDebtor(t, svc)

	_, err := svc.AddPayment(context.Background(), debtor.ID, 999, PaymentInput{Amount: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddPaymentWrongDebtor(t *testing.T) {
	svc, _, _ := newTestService(t)
	debtor := seedDebtor(t, svc)
	debt := seedDebt(t, svc, debtor.ID, 1)

	other, err := svc.CreateDebtor(context.Background(), DebtorInput{Name: "José", Surname: "García"})
	require.NoError(t, err)

	_, err = svc.AddPayment(context.Background(), other.ID, debt.ID, PaymentInput{Amount: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddPaymentIdempotencyKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	debtor := seedDebtor(t, svc)
	debt := seedDebt(t, svc, debtor.ID, 4)

	_, err := svc.AddPayment(context.Background(), debtor.ID, debt.ID,
		PaymentInput{Amount: 1, IdempotencyKey: "abc"})
	require.NoError(t, err)

	_, err = svc.AddPayment(context.Background(), debtor.ID, debt.ID,
		PaymentInput{Amount: 1, IdempotencyKey: "abc"})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
}

func TestAddPaymentFailureFreesIdempotencyKey(t *testing.T) {
	svc, _, idem := newTestService(t)
	debtor := seedDebtor(t, svc)
	debt := seedDebt(t, svc, debtor.ID, 4)

	_, err := svc.AddPayment(context.Background(), debtor.ID, debt.ID,
		PaymentInput{Amount: 100, IdempotencyKey: "retry-me"})
	var excess *shared.ExcessPaymentError
	require.ErrorAs(t, err, &excess)
	require.False(t, idem.keys["retry-me"])

	_, err = svc.AddPayment(context.Background(), debtor.ID, debt.ID,
		PaymentInput{Amount: 5, IdempotencyKey: "retry-me"})
	require.NoError(t, err)
}

func TestDebtDisplayStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	overdue := Debt{Status: DebtStatusPending, DueDate: &past}
	require.Equal(t, DebtStatusOverdue, overdue.DisplayStatus(now))

	current := Debt{Status: DebtStatusPending, DueDate: &future}
	require.Equal(t, string(DebtStatusPending), current.DisplayStatus(now))

	noDue := Debt{Status: DebtStatusPending}
	require.Equal(t, string(DebtStatusPending), noDue.DisplayStatus(now))

	// Paying an overdue debt settles it outright.
	paid := Debt{Status: DebtStatusPaid, DueDate: &past}
	require.Equal(t, string(DebtStatusPaid), paid.DisplayStatus(now))
}

func TestDeleteDebtorCascades(t *testing.T) {
	svc, state, _ := newTestService(t)
	debtor := seedDebtor(t, svc)
	seedDebt(t, svc, debtor.ID, 1)

	require.NoError(t, svc.DeleteDebtor(context.Background(), debtor.ID))
	require.Empty(t, state.debts)

	_, err := svc.GetDebtor(context.Background(), debtor.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateDebtorMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UpdateDebtor(context.Background(), 99, DebtorInput{Name: "A", Surname: "B"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPendingTotalSumsDebts(t *testing.T) {
	svc, _, _ := newTestService(t)
	debtor := seedDebtor(t, svc)
	seedDebt(t, svc, debtor.ID, 2)
	seedDebt(t, svc, debtor.ID, 3)

	loaded, err := svc.GetDebtor(context.Background(), debtor.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Debts, 2)
	require.InDelta(t, 12.00, loaded.PendingTotal(), 1e-9)
}
