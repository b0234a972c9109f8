package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

type memoryCatalogRepo struct {
	products   map[int64]Product
	categories map[int64]Category
	nextID     int64
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		products:   make(map[int64]Product),
		categories: make(map[int64]Category),
	}
}

func (m *memoryCatalogRepo) Create(_ context.Context, p Product) (*Product, error) {
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = p
	return &p, nil
}

func (m *memoryCatalogRepo) Get(_ context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (m *memoryCatalogRepo) List(_ context.Context, filter ListFilter) ([]Product, error) {
	var out []Product
	for id := int64(1); id <= m.nextID; id++ {
		p, ok := m.products[id]
		if !ok {
			continue
		}
		if filter.Uncategorized && p.CategoryID != nil {
			continue
		}
		if filter.Category != nil && (p.CategoryID == nil || *p.CategoryID != *filter.Category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryCatalogRepo) Update(_ context.Context, p Product) (*Product, error) {
	stored, ok := m.products[p.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.products[p.ID] = p
	return &p, nil
}

func (m *memoryCatalogRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memoryCatalogRepo) CreateCategory(_ context.Context, c Category) (*Category, error) {
	m.nextID++
	c.ID = m.nextID
	m.categories[c.ID] = c
	return &c, nil
}

func (m *memoryCatalogRepo) GetCategory(_ context.Context, id int64) (*Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (m *memoryCatalogRepo) ListCategories(_ context.Context) ([]Category, error) {
	var out []Category
	for id := int64(1); id <= m.nextID; id++ {
		if c, ok := m.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryCatalogRepo) UpdateCategory(_ context.Context, c Category) (*Category, error) {
	if _, ok := m.categories[c.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	m.categories[c.ID] = c
	return &c, nil
}

func (m *memoryCatalogRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.categories, id)
	for pid, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			m.products[pid] = p
		}
	}
	return nil
}

func validInput() ProductInput {
	return ProductInput{
		Name:            "Harina PAN",
		PurchasePrice:   10,
		UnitsPerPackage: 5,
		PackageCount:    2,
		LooseUnits:      2,
	}
}

func TestCreateProductDefaultsProfitPct(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	p, err := svc.CreateProduct(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, float64(DefaultProfitPct), p.ProfitPct)
	require.InDelta(t, 12.00, p.SellPrice(), 1e-9)
}

func TestCreateProductKeepsExplicitZeroProfit(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	zero := 0.0
	input := validInput()
	input.ProfitPct = &zero
	p, err := svc.CreateProduct(context.Background(), input)
	require.NoError(t, err)
	require.Zero(t, p.ProfitPct)
	require.InDelta(t, 10.00, p.SellPrice(), 1e-9)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	cases := map[string]func(*ProductInput){
		"missing name":        func(in *ProductInput) { in.Name = "" },
		"negative price":      func(in *ProductInput) { in.PurchasePrice = -1 },
		"zero per package":    func(in *ProductInput) { in.UnitsPerPackage = 0 },
		"negative packages":   func(in *ProductInput) { in.PackageCount = -1 },
		"negative loose":      func(in *ProductInput) { in.LooseUnits = -1 },
		"negative profit pct": func(in *ProductInput) { neg := -5.0; in.ProfitPct = &neg },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := svc.CreateProduct(context.Background(), input)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestUpdateProductMissing(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())
	_, err := svc.UpdateProduct(context.Background(), 99, validInput())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteProductMissing(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())
	require.ErrorIs(t, svc.DeleteProduct(context.Background(), 99), shared.ErrNotFound)
}

func TestListProductsCategoryFilters(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)

	cat, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Bebidas"})
	require.NoError(t, err)

	tagged := validInput()
	tagged.Name = "Malta"
	tagged.CategoryID = &cat.ID
	_, err = svc.CreateProduct(context.Background(), tagged)
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), validInput())
	require.NoError(t, err)

	all, err := svc.ListProducts(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byCategory, err := svc.ListProducts(context.Background(), ListFilter{Category: &cat.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.Equal(t, "Malta", byCategory[0].Name)

	uncategorized, err := svc.ListProducts(context.Background(), ListFilter{Uncategorized: true})
	require.NoError(t, err)
	require.Len(t, uncategorized, 1)
	require.Equal(t, "Harina PAN", uncategorized[0].Name)
}

func TestCategoryDefaultsAndValidation(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	_, err := svc.CreateCategory(context.Background(), CategoryInput{})
	require.ErrorIs(t, err, shared.ErrValidation)

	cat, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Limpieza"})
	require.NoError(t, err)
	require.Equal(t, "#3b82f6", cat.Color)
	require.Equal(t, "category", cat.Icon)
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)

	cat, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Bebidas"})
	require.NoError(t, err)

	input := validInput()
	input.CategoryID = &cat.ID
	p, err := svc.CreateProduct(context.Background(), input)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(context.Background(), cat.ID))

	detached, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Nil(t, detached.CategoryID)
}
