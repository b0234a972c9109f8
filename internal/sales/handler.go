package sales

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mercadito-erp/mercadito-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the sale engine.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers /sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listSales)
	r.Post("/", h.createSale)
	r.Get("/recent", h.recentSales)
}

type saleLineRequest struct {
	ProductoID int64  `json:"productoId" validate:"required,gte=1"`
	Cantidad   int64  `json:"cantidad" validate:"required,gte=1"`
	TipoVenta  string `json:"tipoVenta" validate:"omitempty,oneof=unidad paquete"`
}

type saleRequest struct {
	Productos        []saleLineRequest `json:"productos" validate:"required,min=1,dive"`
	ClienteID        *int64            `json:"clienteId"`
	EsCredito        bool              `json:"esCredito"`
	FechaVencimiento *time.Time        `json:"fechaVencimiento"`
}

func (req saleRequest) toInput() CreateSaleInput {
	lines := make([]LineInput, 0, len(req.Productos))
	for _, p := range req.Productos {
		lines = append(lines, LineInput{
			ProductID: p.ProductoID,
			Quantity:  p.Cantidad,
			SaleType:  SaleType(p.TipoVenta),
		})
	}
	return CreateSaleInput{
		Lines:      lines,
		CustomerID: req.ClienteID,
		IsCredit:   req.EsCredito,
		DueDate:    req.FechaVencimiento,
	}
}

type saleLineResponse struct {
	ProductoID     int64   `json:"productoId"`
	Nombre         string  `json:"nombre"`
	Cantidad       int64   `json:"cantidad"`
	TipoVenta      string  `json:"tipoVenta"`
	PrecioUnitario float64 `json:"precioUnitario"`
	Subtotal       float64 `json:"subtotal"`
}

type saleResponse struct {
	ID        int64              `json:"id"`
	Codigo    string             `json:"codigo"`
	ClienteID *int64             `json:"clienteId,omitempty"`
	EsCredito bool               `json:"esCredito"`
	Estado    string             `json:"estado"`
	Total     float64            `json:"total"`
	Productos []saleLineResponse `json:"productos"`
	CreatedAt time.Time          `json:"createdAt"`
}

func toSaleResponse(s Sale) saleResponse {
	lines := make([]saleLineResponse, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, saleLineResponse{
			ProductoID:     line.ProductID,
			Nombre:         line.ProductName,
			Cantidad:       line.Quantity,
			TipoVenta:      string(line.SaleType),
			PrecioUnitario: line.UnitPrice,
			Subtotal:       line.Subtotal,
		})
	}
	return saleResponse{
		ID:        s.ID,
		Codigo:    s.Code,
		ClienteID: s.CustomerID,
		EsCredito: s.IsCredit,
		Estado:    string(s.Status),
		Total:     s.Total,
		Productos: lines,
		CreatedAt: s.CreatedAt,
	}
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			httpx.Error(w, http.StatusBadRequest, "límite inválido")
			return
		}
		limit = parsed
	}

	sales, err := h.service.ListSales(r.Context(), limit)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleResponse(s))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sale, err := h.service.CreateSale(r.Context(), req.toInput())
	if err != nil {
		h.logger.Error("create sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSaleResponse(*sale))
}

func (h *Handler) recentSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.RecentSales(r.Context())
	if err != nil {
		h.logger.Error("recent sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleResponse(s))
	}
	httpx.JSON(w, http.StatusOK, out)
}
