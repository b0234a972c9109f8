package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
)

// InsufficientStockError reports a sale line that exceeds available stock.
// The message names both quantities so the UI can surface them directly.
type InsufficientStockError struct {
	Product   string
	Requested int64
	Available int64
	Unit      string
}

func (e *InsufficientStockError) Error() string {
	unit := e.Unit
	if unit == "" {
		unit = "unidades"
	}
	return fmt.Sprintf("stock insuficiente para %s. Disponible: %d %s, Solicitado: %d %s",
		e.Product, e.Available, unit, e.Requested, unit)
}

// ExcessPaymentError reports a payment larger than the pending balance.
type ExcessPaymentError struct {
	Amount  float64
	Pending float64
}

func (e *ExcessPaymentError) Error() string {
	return fmt.Sprintf("el abono (%.2f) excede el monto pendiente (%.2f)", e.Amount, e.Pending)
}

// InvalidRateError reports a non-positive exchange rate value.
type InvalidRateError struct {
	Kind  string
	Value float64
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("tasa %s inválida: %v (debe ser mayor a 0)", e.Kind, e.Value)
}
