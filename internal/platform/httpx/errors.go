package httpx

import (
	"errors"
	"net/http"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	var (
		stockErr   *shared.InsufficientStockError
		paymentErr *shared.ExcessPaymentError
		rateErr    *shared.InvalidRateError
	)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrValidation),
		errors.As(err, &stockErr),
		errors.As(err, &paymentErr),
		errors.As(err, &rateErr):
		Error(w, http.StatusBadRequest, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "unexpected error")
	}
}
