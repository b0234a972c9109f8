package debtors

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mercadito-erp/mercadito-erp/internal/platform/httpx"
	"github.com/mercadito-erp/mercadito-erp/internal/sales"
)

// Handler wires HTTP endpoints for the debtor ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs debtors handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers /debtors routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listDebtors)
	r.Post("/", h.createDebtor)
	r.Get("/{id}", h.getDebtor)
	r.Put("/{id}", h.updateDebtor)
	r.Delete("/{id}", h.deleteDebtor)
	r.Post("/{id}/debts", h.addDebt)
	r.Post("/{id}/debts/{debtId}/payments", h.addPayment)
}

type debtorRequest struct {
	Nombre    string `json:"nombre" validate:"required"`
	Apellido  string `json:"apellido" validate:"required"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func (req debtorRequest) toInput() DebtorInput {
	return DebtorInput{
		Name:    req.Nombre,
		Surname: req.Apellido,
		Phone:   req.Telefono,
		Address: req.Direccion,
		Email:   req.Email,
	}
}

type debtLineRequest struct {
	ProductoID int64 `json:"productoId" validate:"required,gte=1"`
	Cantidad   int64 `json:"cantidad" validate:"required,gte=1"`
}

type debtRequest struct {
	Productos        []debtLineRequest `json:"productos" validate:"required,min=1,dive"`
	FechaVencimiento *time.Time        `json:"fechaVencimiento"`
}

type paymentRequest struct {
	Monto          float64 `json:"monto" validate:"required,gt=0"`
	Descripcion    string  `json:"descripcion"`
	MetodoPago     string  `json:"metodoPago"`
	IdempotencyKey string  `json:"idempotencyKey"`
}

type paymentResponse struct {
	ID          int64     `json:"id"`
	Monto       float64   `json:"monto"`
	Descripcion string    `json:"descripcion,omitempty"`
	MetodoPago  string    `json:"metodoPago,omitempty"`
	Fecha       time.Time `json:"fecha"`
}

type debtLineResponse struct {
	ProductoID     int64   `json:"productoId"`
	Nombre         string  `json:"nombre"`
	Cantidad       int64   `json:"cantidad"`
	PrecioUnitario float64 `json:"precioUnitario"`
	Subtotal       float64 `json:"subtotal"`
}

type debtResponse struct {
	ID               int64              `json:"id"`
	VentaID          *int64             `json:"ventaId,omitempty"`
	Total            float64            `json:"total"`
	MontoPendiente   float64            `json:"montoPendiente"`
	Estado           string             `json:"estado"`
	FechaVencimiento *time.Time         `json:"fechaVencimiento,omitempty"`
	Productos        []debtLineResponse `json:"productos"`
	Abonos           []paymentResponse  `json:"abonos"`
	CreatedAt        time.Time          `json:"createdAt"`
}

type debtorResponse struct {
	ID         int64          `json:"id"`
	Nombre     string         `json:"nombre"`
	Apellido   string         `json:"apellido"`
	Telefono   string         `json:"telefono,omitempty"`
	Direccion  string         `json:"direccion,omitempty"`
	Email      string         `json:"email"`
	DeudaTotal float64        `json:"deudaTotal"`
	Deudas     []debtResponse `json:"deudas"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func toDebtResponse(d Debt, now time.Time) debtResponse {
	lines := make([]debtLineResponse, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, debtLineResponse{
			ProductoID:     line.ProductID,
			Nombre:         line.ProductName,
			Cantidad:       line.Quantity,
			PrecioUnitario: line.UnitPrice,
			Subtotal:       line.Subtotal,
		})
	}
	payments := make([]paymentResponse, 0, len(d.Payments))
	for _, p := range d.Payments {
		payments = append(payments, paymentResponse{
			ID:          p.ID,
			Monto:       p.Amount,
			Descripcion: p.Description,
			MetodoPago:  p.Method,
			Fecha:       p.CreatedAt,
		})
	}
	return debtResponse{
		ID:               d.ID,
		VentaID:          d.SaleID,
		Total:            d.Total,
		MontoPendiente:   d.Pending,
		Estado:           d.DisplayStatus(now),
		FechaVencimiento: d.DueDate,
		Productos:        lines,
		Abonos:           payments,
		CreatedAt:        d.CreatedAt,
	}
}

func toDebtorResponse(d Debtor, now time.Time) debtorResponse {
	debts := make([]debtResponse, 0, len(d.Debts))
	for _, debt := range d.Debts {
		debts = append(debts, toDebtResponse(debt, now))
	}
	return debtorResponse{
		ID:         d.ID,
		Nombre:     d.Name,
		Apellido:   d.Surname,
		Telefono:   d.Phone,
		Direccion:  d.Address,
		Email:      d.Email,
		DeudaTotal: d.PendingTotal(),
		Deudas:     debts,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (h *Handler) listDebtors(w http.ResponseWriter, r *http.Request) {
	debtorList, err := h.service.ListDebtors(r.Context())
	if err != nil {
		h.logger.Error("list debtors", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	now := time.Now()
	out := make([]debtorResponse, 0, len(debtorList))
	for _, d := range debtorList {
		out = append(out, toDebtorResponse(d, now))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createDebtor(w http.ResponseWriter, r *http.Request) {
	var req debtorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	debtor, err := h.service.CreateDebtor(r.Context(), req.toInput())
	if err != nil {
		h.logger.Error("create debtor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDebtorResponse(*debtor, time.Now()))
}

func (h *Handler) getDebtor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de deudor inválido")
		return
	}
	debtor, err := h.service.GetDebtor(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDebtorResponse(*debtor, time.Now()))
}

func (h *Handler) updateDebtor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de deudor inválido")
		return
	}
	var req debtorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	debtor, err := h.service.UpdateDebtor(r.Context(), id, req.toInput())
	if err != nil {
		h.logger.Error("update debtor", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDebtorResponse(*debtor, time.Now()))
}

func (h *Handler) deleteDebtor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de deudor inválido")
		return
	}
	if err := h.service.DeleteDebtor(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "deudor eliminado correctamente"})
}

func (h *Handler) addDebt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de deudor inválido")
		return
	}
	var req debtRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	lines := make([]sales.LineInput, 0, len(req.Productos))
	for _, p := range req.Productos {
		lines = append(lines, sales.LineInput{ProductID: p.ProductoID, Quantity: p.Cantidad})
	}
	debt, err := h.service.AddDebt(r.Context(), id, lines, req.FechaVencimiento)
	if err != nil {
		h.logger.Error("add debt", slog.Any("error", err), slog.Int64("debtor", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDebtResponse(*debt, time.Now()))
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	debtorID, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de deudor inválido")
		return
	}
	debtID, err := parseID(r, "debtId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de deuda inválido")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	debt, err := h.service.AddPayment(r.Context(), debtorID, debtID, PaymentInput{
		Amount:         req.Monto,
		Description:    req.Descripcion,
		Method:         req.MetodoPago,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.logger.Error("add payment", slog.Any("error", err),
			slog.Int64("debtor", debtorID), slog.Int64("debt", debtID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDebtResponse(*debt, time.Now()))
}

func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
