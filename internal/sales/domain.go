package sales

import (
	"time"
)

// SaleStatus enumerates sale states. Credit sales stay pending until the
// matching debt is settled; cash sales complete at checkout.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completada"
	SaleStatusPending   SaleStatus = "pendiente"
)

// SaleType distinguishes unit-based lines from whole-package lines.
type SaleType string

const (
	SaleTypeUnit    SaleType = "unidad"
	SaleTypePackage SaleType = "paquete"
)

// Line is one product position within a sale. Name and prices are
// snapshotted at sale time; later catalog edits never touch history.
type Line struct {
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int64
	SaleType    SaleType
	UnitPrice   float64
	Subtotal    float64
}

// Sale is an immutable checkout record.
type Sale struct {
	ID         int64
	Code       string
	CustomerID *int64
	IsCredit   bool
	Status     SaleStatus
	Total      float64
	CreatedAt  time.Time
	Lines      []Line
}

// LineInput is a requested sale position.
type LineInput struct {
	ProductID int64
	Quantity  int64
	SaleType  SaleType
}

// CreateSaleInput describes a checkout request.
type CreateSaleInput struct {
	Lines      []LineInput
	CustomerID *int64
	IsCredit   bool
	DueDate    *time.Time
}

// DebtRecord is the debt snapshot appended for credit sales.
type DebtRecord struct {
	DebtorID int64
	SaleID   int64
	Total    float64
	DueDate  *time.Time
	Lines    []Line
}
