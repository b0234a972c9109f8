package rates

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mercadito-erp/mercadito-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the currency configuration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs rates handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers /config routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dollar", h.getRates)
	r.Post("/dollar", h.setRates)
}

type ratesRequest struct {
	Promedio *float64 `json:"promedio" validate:"omitempty,gt=0"`
	BCV      *float64 `json:"bcv" validate:"omitempty,gt=0"`
	Paralelo *float64 `json:"paralelo" validate:"omitempty,gt=0"`
}

type rateResponse struct {
	Valor       float64   `json:"valor"`
	Actualizado time.Time `json:"actualizado"`
}

type historyResponse struct {
	Tipo  string    `json:"tipo"`
	Valor float64   `json:"valor"`
	Fecha time.Time `json:"fecha"`
}

type ratesResponse struct {
	Promedio  rateResponse      `json:"promedio"`
	BCV       rateResponse      `json:"bcv"`
	Paralelo  rateResponse      `json:"paralelo"`
	Historial []historyResponse `json:"historial"`
}

var wireNames = map[RateKind]string{
	RateAverage:     "promedio",
	RateCentralBank: "bcv",
	RateParallel:    "paralelo",
}

func toRatesResponse(s Snapshot) ratesResponse {
	pick := func(kind RateKind) rateResponse {
		rate := s.Rates[kind]
		return rateResponse{Valor: rate.Value, Actualizado: rate.UpdatedAt}
	}
	history := make([]historyResponse, 0, len(s.History))
	for _, entry := range s.History {
		history = append(history, historyResponse{
			Tipo:  wireNames[entry.Kind],
			Valor: entry.Value,
			Fecha: entry.RecordedAt,
		})
	}
	return ratesResponse{
		Promedio:  pick(RateAverage),
		BCV:       pick(RateCentralBank),
		Paralelo:  pick(RateParallel),
		Historial: history,
	}
}

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetRates(r.Context())
	if err != nil {
		h.logger.Error("get rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRatesResponse(*snapshot))
}

func (h *Handler) setRates(w http.ResponseWriter, r *http.Request) {
	var req ratesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.service.SetRates(r.Context(), SetRatesInput{
		Average:     req.Promedio,
		CentralBank: req.BCV,
		Parallel:    req.Paralelo,
	})
	if err != nil {
		h.logger.Error("set rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRatesResponse(*snapshot))
}
