package debtors

import (
	"time"
)

// DebtStatus enumerates stored debt states. Overdue is never stored; it is
// derived from the due date at read time.
type DebtStatus string

const (
	DebtStatusPending DebtStatus = "pendiente"
	DebtStatusPaid    DebtStatus = "pagada"
)

// DebtStatusOverdue is the display-only state for pending debts past due.
const DebtStatusOverdue = "vencida"

// PlaceholderEmail fills the email field when none is provided, so the
// contact column is never null for UI sorting.
const PlaceholderEmail = "sin-correo@mercadito.local"

// Debtor is a credit customer. Debts are loaded alongside for detail views.
type Debtor struct {
	ID        int64
	Name      string
	Surname   string
	Phone     string
	Address   string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Debts     []Debt
}

// Debt is one credit obligation. Total never changes after creation;
// Pending only decreases as payments arrive.
type Debt struct {
	ID        int64
	DebtorID  int64
	SaleID    *int64
	Total     float64
	Pending   float64
	Status    DebtStatus
	DueDate   *time.Time
	OverdueAt *time.Time
	CreatedAt time.Time
	Lines     []DebtLine
	Payments  []Payment
}

// DebtLine snapshots a sold product at debt-creation time.
type DebtLine struct {
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int64
	UnitPrice   float64
	Subtotal    float64
}

// Payment is one append-only entry in a debt's payment history.
type Payment struct {
	ID          int64
	DebtID      int64
	Amount      float64
	Description string
	Method      string
	CreatedAt   time.Time
}

// DisplayStatus projects the overdue state without mutating the record.
func (d Debt) DisplayStatus(now time.Time) string {
	if d.Status == DebtStatusPending && d.DueDate != nil && d.DueDate.Before(now) {
		return DebtStatusOverdue
	}
	return string(d.Status)
}

// PendingTotal sums the outstanding balance across a debtor's debts.
func (d Debtor) PendingTotal() float64 {
	var total float64
	for _, debt := range d.Debts {
		total += debt.Pending
	}
	return total
}
