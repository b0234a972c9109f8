package catalog

import (
	"context"
	"fmt"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// Service coordinates catalog operations.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ProductInput carries the fields accepted on create/update.
type ProductInput struct {
	Name            string
	Description     string
	PurchasePrice   float64
	ProfitPct       *float64
	UnitsPerPackage int64
	PackageCount    int64
	LooseUnits      int64
	CategoryID      *int64
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: el nombre del producto es obligatorio", shared.ErrValidation)
	}
	if in.PurchasePrice < 0 {
		return fmt.Errorf("%w: el precio de compra no puede ser negativo", shared.ErrValidation)
	}
	if in.ProfitPct != nil && *in.ProfitPct < 0 {
		return fmt.Errorf("%w: el porcentaje de ganancia no puede ser negativo", shared.ErrValidation)
	}
	if in.UnitsPerPackage < 1 {
		return fmt.Errorf("%w: la cantidad por paquete debe ser al menos 1", shared.ErrValidation)
	}
	if in.PackageCount < 0 || in.LooseUnits < 0 {
		return fmt.Errorf("%w: las cantidades de inventario no pueden ser negativas", shared.ErrValidation)
	}
	return nil
}

func (in ProductInput) toProduct() Product {
	profit := float64(DefaultProfitPct)
	if in.ProfitPct != nil {
		profit = *in.ProfitPct
	}
	return Product{
		Name:            in.Name,
		Description:     in.Description,
		PurchasePrice:   in.PurchasePrice,
		ProfitPct:       profit,
		UnitsPerPackage: in.UnitsPerPackage,
		PackageCount:    in.PackageCount,
		LooseUnits:      in.LooseUnits,
		CategoryID:      in.CategoryID,
	}
}

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input.toProduct())
}

// GetProduct returns a single product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// ListProducts returns products, optionally filtered by category.
func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.List(ctx, filter)
}

// UpdateProduct replaces the editable fields of a product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	p := input.toProduct()
	p.ID = id
	return s.repo.Update(ctx, p)
}

// DeleteProduct removes a product from the catalog. Historical sales and
// debts keep their line snapshots, so no cascade happens here.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// CategoryInput carries the fields accepted on category create/update.
type CategoryInput struct {
	Name        string
	Description string
	Color       string
	Icon        string
}

func (in CategoryInput) toCategory() Category {
	c := Category{
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
	}
	if c.Color == "" {
		c.Color = "#3b82f6"
	}
	if c.Icon == "" {
		c.Icon = "category"
	}
	return c
}

// CreateCategory validates and persists a new category.
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: el nombre de la categoría es obligatorio", shared.ErrValidation)
	}
	return s.repo.CreateCategory(ctx, input.toCategory())
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// UpdateCategory replaces the editable fields of a category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, input CategoryInput) (*Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: el nombre de la categoría es obligatorio", shared.ErrValidation)
	}
	if _, err := s.repo.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	c := input.toCategory()
	c.ID = id
	return s.repo.UpdateCategory(ctx, c)
}

// DeleteCategory removes a category; its products become uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}
