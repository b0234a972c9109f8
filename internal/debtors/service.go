package debtors

import (
	"context"
	"fmt"
	"time"

	"github.com/mercadito-erp/mercadito-erp/internal/sales"
	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// RepositoryPort defines data access for the debtor ledger.
type RepositoryPort interface {
	CreateDebtor(ctx context.Context, d Debtor) (*Debtor, error)
	GetDebtor(ctx context.Context, id int64) (*Debtor, error)
	ListDebtors(ctx context.Context) ([]Debtor, error)
	UpdateDebtor(ctx context.Context, d Debtor) (*Debtor, error)
	DeleteDebtor(ctx context.Context, id int64) error
	GetDebtBySale(ctx context.Context, saleID int64) (*Debt, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the payment mutation primitives. The debt row stays
// locked for the duration, serialising concurrent payments on one debt.
type TxRepository interface {
	GetDebtForUpdate(ctx context.Context, debtorID, debtID int64) (*Debt, error)
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	UpdateDebtBalance(ctx context.Context, debtID int64, pending float64, status DebtStatus) error
}

// IdempotencyStore guards duplicate payment submissions.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "debtors:payment"

// Service implements the debtor ledger.
type Service struct {
	repo  RepositoryPort
	sales *sales.Service
	idem  IdempotencyStore
}

// NewService builds Service instance. idem may be nil when idempotency keys
// are not accepted (tests).
func NewService(repo RepositoryPort, saleEngine *sales.Service, idem IdempotencyStore) *Service {
	return &Service{repo: repo, sales: saleEngine, idem: idem}
}

// DebtorInput carries the fields accepted on debtor create/update.
type DebtorInput struct {
	Name    string
	Surname string
	Phone   string
	Address string
	Email   string
}

func (in DebtorInput) validate() error {
	if in.Name == "" || in.Surname == "" {
		return fmt.Errorf("%w: nombre y apellido son obligatorios", shared.ErrValidation)
	}
	return nil
}

func (in DebtorInput) toDebtor() Debtor {
	d := Debtor{
		Name:    in.Name,
		Surname: in.Surname,
		Phone:   in.Phone,
		Address: in.Address,
		Email:   in.Email,
	}
	if d.Email == "" {
		d.Email = PlaceholderEmail
	}
	return d
}

// CreateDebtor validates and persists a new credit customer.
func (s *Service) CreateDebtor(ctx context.Context, input DebtorInput) (*Debtor, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	return s.repo.CreateDebtor(ctx, input.toDebtor())
}

// GetDebtor returns one debtor with debts and payment history embedded.
func (s *Service) GetDebtor(ctx context.Context, id int64) (*Debtor, error) {
	return s.repo.GetDebtor(ctx, id)
}

// ListDebtors returns all debtors with their debts embedded.
func (s *Service) ListDebtors(ctx context.Context) ([]Debtor, error) {
	return s.repo.ListDebtors(ctx)
}

// UpdateDebtor replaces the editable contact fields.
func (s *Service) UpdateDebtor(ctx context.Context, id int64, input DebtorInput) (*Debtor, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDebtor(ctx, id); err != nil {
		return nil, err
	}
	d := input.toDebtor()
	d.ID = id
	return s.repo.UpdateDebtor(ctx, d)
}

// DeleteDebtor removes a debtor together with its debts and payments.
func (s *Service) DeleteDebtor(ctx context.Context, id int64) error {
	return s.repo.DeleteDebtor(ctx, id)
}

// AddDebt registers a manual debt for a debtor. It is routed through the
// sale engine as a credit sale, so pricing and stock decrement have exactly
// one code path.
func (s *Service) AddDebt(ctx context.Context, debtorID int64, lines []sales.LineInput, dueDate *time.Time) (*Debt, error) {
	sale, err := s.sales.CreateSale(ctx, sales.CreateSaleInput{
		Lines:      lines,
		CustomerID: &debtorID,
		IsCredit:   true,
		DueDate:    dueDate,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetDebtBySale(ctx, sale.ID)
}

// PaymentInput carries one payment submission.
type PaymentInput struct {
	Amount      float64
	Description string
	Method      string
	// IdempotencyKey, when set, rejects resubmissions of the same payment.
	IdempotencyKey string
}

// AddPayment appends a payment to a debt. The amount must be positive and
// must not exceed the pending balance; the debt flips to paid exactly when
// the balance reaches zero.
func (s *Service) AddPayment(ctx context.Context, debtorID, debtID int64, input PaymentInput) (*Debt, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: el monto del abono debe ser mayor a 0", shared.ErrValidation)
	}
	if input.IdempotencyKey != "" {
		if s.idem == nil {
			return nil, fmt.Errorf("%w: clave de idempotencia no soportada", shared.ErrValidation)
		}
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, idempotencyModule); err != nil {
			return nil, err
		}
	}

	var updated *Debt
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		debt, err := tx.GetDebtForUpdate(ctx, debtorID, debtID)
		if err != nil {
			return err
		}
		if input.Amount > debt.Pending {
			return &shared.ExcessPaymentError{Amount: input.Amount, Pending: debt.Pending}
		}

		payment := Payment{
			DebtID:      debtID,
			Amount:      input.Amount,
			Description: input.Description,
			Method:      input.Method,
			CreatedAt:   time.Now().UTC(),
		}
		paymentID, err := tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		payment.ID = paymentID

		debt.Pending -= input.Amount
		if debt.Pending == 0 {
			debt.Status = DebtStatusPaid
		}
		if err := tx.UpdateDebtBalance(ctx, debtID, debt.Pending, debt.Status); err != nil {
			return err
		}
		debt.Payments = append(debt.Payments, payment)
		updated = debt
		return nil
	})
	if err != nil {
		if input.IdempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, input.IdempotencyKey)
		}
		return nil, err
	}
	return updated, nil
}
