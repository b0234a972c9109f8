package catalog

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mercadito-erp/mercadito-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the product catalog.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountProductRoutes registers /products routes.
func (h *Handler) MountProductRoutes(r chi.Router) {
	r.Get("/", h.listProducts)
	r.Post("/", h.createProduct)
	r.Get("/{id}", h.getProduct)
	r.Put("/{id}", h.updateProduct)
	r.Delete("/{id}", h.deleteProduct)
}

// MountCategoryRoutes registers /categories routes.
func (h *Handler) MountCategoryRoutes(r chi.Router) {
	r.Get("/", h.listCategories)
	r.Post("/", h.createCategory)
	r.Put("/{id}", h.updateCategory)
	r.Delete("/{id}", h.deleteCategory)
}

type productRequest struct {
	Nombre                  string   `json:"nombre" validate:"required"`
	Descripcion             string   `json:"descripcion"`
	PrecioCompra            float64  `json:"precioCompra" validate:"gte=0"`
	PorcentajeGanancia      *float64 `json:"porcentajeGanancia" validate:"omitempty,gte=0"`
	CantidadPorPaquete      int64    `json:"cantidadPorPaquete" validate:"required,gte=1"`
	CantidadPaquetes        int64    `json:"cantidadPaquetes" validate:"gte=0"`
	CantidadUnidadesSueltas int64    `json:"cantidadUnidadesSueltas" validate:"gte=0"`
	Categoria               *int64   `json:"categoria"`
}

func (req productRequest) toInput() ProductInput {
	return ProductInput{
		Name:            req.Nombre,
		Description:     req.Descripcion,
		PurchasePrice:   req.PrecioCompra,
		ProfitPct:       req.PorcentajeGanancia,
		UnitsPerPackage: req.CantidadPorPaquete,
		PackageCount:    req.CantidadPaquetes,
		LooseUnits:      req.CantidadUnidadesSueltas,
		CategoryID:      req.Categoria,
	}
}

type productResponse struct {
	ID                      int64     `json:"id"`
	Nombre                  string    `json:"nombre"`
	Descripcion             string    `json:"descripcion,omitempty"`
	PrecioCompra            float64   `json:"precioCompra"`
	PorcentajeGanancia      float64   `json:"porcentajeGanancia"`
	CantidadPorPaquete      int64     `json:"cantidadPorPaquete"`
	CantidadPaquetes        int64     `json:"cantidadPaquetes"`
	CantidadUnidadesSueltas int64     `json:"cantidadUnidadesSueltas"`
	PrecioVenta             float64   `json:"precioVenta"`
	PrecioUnitario          float64   `json:"precioUnitario"`
	CantidadInventario      int64     `json:"cantidadInventario"`
	Categoria               *int64    `json:"categoria"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

func toProductResponse(p Product) productResponse {
	return productResponse{
		ID:                      p.ID,
		Nombre:                  p.Name,
		Descripcion:             p.Description,
		PrecioCompra:            p.PurchasePrice,
		PorcentajeGanancia:      p.ProfitPct,
		CantidadPorPaquete:      p.UnitsPerPackage,
		CantidadPaquetes:        p.PackageCount,
		CantidadUnidadesSueltas: p.LooseUnits,
		PrecioVenta:             p.SellPrice(),
		PrecioUnitario:          p.UnitPrice(),
		CantidadInventario:      p.TotalUnits(),
		Categoria:               p.CategoryID,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if raw := r.URL.Query().Get("categoria"); raw != "" {
		if raw == "none" {
			filter.Uncategorized = true
		} else if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.Category = &id
		} else {
			httpx.Error(w, http.StatusBadRequest, "categoría inválida")
			return
		}
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toProductResponse(*product))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de producto inválido")
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de producto inválido")
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, req.toInput())
	if err != nil {
		h.logger.Error("update product", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de producto inválido")
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "producto eliminado correctamente"})
}

type categoryRequest struct {
	Nombre      string `json:"nombre" validate:"required"`
	Descripcion string `json:"descripcion"`
	Color       string `json:"color"`
	Icono       string `json:"icono"`
}

type categoryResponse struct {
	ID          int64     `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	Color       string    `json:"color"`
	Icono       string    `json:"icono"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCategoryResponse(c Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Nombre:      c.Name,
		Descripcion: c.Description,
		Color:       c.Color,
		Icono:       c.Icon,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.service.CreateCategory(r.Context(), CategoryInput{
		Name:        req.Nombre,
		Description: req.Descripcion,
		Color:       req.Color,
		Icon:        req.Icono,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCategoryResponse(*category))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de categoría inválido")
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), id, CategoryInput{
		Name:        req.Nombre,
		Description: req.Descripcion,
		Color:       req.Color,
		Icon:        req.Icono,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCategoryResponse(*category))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "id de categoría inválido")
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "categoría eliminada correctamente"})
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
