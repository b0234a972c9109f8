package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mercadito-erp/mercadito-erp/internal/catalog"
	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the sale engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListSales(ctx context.Context, limit int64) ([]Sale, error)
}

// TxRepository exposes the primitives a checkout needs inside one
// transaction. Product rows are locked for the duration, which serialises
// concurrent sales of the same product.
type TxRepository interface {
	GetProductsForUpdate(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error)
	UpdateProductStock(ctx context.Context, productID, packageCount, looseUnits int64) error
	InsertSale(ctx context.Context, sale *Sale) (int64, error)
	InsertSaleLines(ctx context.Context, saleID int64, lines []Line) error
	DebtorExists(ctx context.Context, debtorID int64) (bool, error)
	InsertDebt(ctx context.Context, debt DebtRecord) (int64, error)
}

// Service implements the sale engine.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateSale validates, prices and persists a checkout. The sale record,
// every stock decrement and the optional debt append happen in a single
// transaction: if any line fails, nothing is persisted.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene productos", shared.ErrValidation)
	}
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: la cantidad debe ser mayor a 0", shared.ErrValidation)
		}
		switch line.SaleType {
		case "", SaleTypeUnit, SaleTypePackage:
		default:
			return nil, fmt.Errorf("%w: tipo de venta desconocido: %s", shared.ErrValidation, line.SaleType)
		}
	}
	if input.IsCredit && input.CustomerID == nil {
		return nil, fmt.Errorf("%w: una venta a crédito requiere un cliente", shared.ErrValidation)
	}

	ids := make([]int64, 0, len(input.Lines))
	seen := make(map[int64]bool, len(input.Lines))
	for _, line := range input.Lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	sale := &Sale{
		Code:       uuid.NewString(),
		CustomerID: input.CustomerID,
		IsCredit:   input.IsCredit,
		Status:     SaleStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	if input.IsCredit {
		sale.Status = SaleStatusPending
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		products, err := tx.GetProductsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if products[id] == nil {
				return fmt.Errorf("producto no encontrado: %d: %w", id, shared.ErrNotFound)
			}
		}

		if input.IsCredit {
			ok, err := tx.DebtorExists(ctx, *input.CustomerID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("deudor no encontrado: %d: %w", *input.CustomerID, shared.ErrNotFound)
			}
		}

		// Price and decrement line by line. Duplicate products accumulate
		// against the same in-memory counters, so a second line cannot spend
		// stock the first one already consumed. Any error aborts the tx.
		for _, line := range input.Lines {
			product := products[line.ProductID]
			priced, err := priceLine(product, line)
			if err != nil {
				return err
			}
			sale.Lines = append(sale.Lines, priced)
			sale.Total += priced.Subtotal
		}

		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID
		if err := tx.InsertSaleLines(ctx, saleID, sale.Lines); err != nil {
			return err
		}

		for _, id := range ids {
			p := products[id]
			if err := tx.UpdateProductStock(ctx, id, p.PackageCount, p.LooseUnits); err != nil {
				return err
			}
		}

		if input.IsCredit {
			debt := DebtRecord{
				DebtorID: *input.CustomerID,
				SaleID:   saleID,
				Total:    sale.Total,
				DueDate:  input.DueDate,
				Lines:    sale.Lines,
			}
			if _, err := tx.InsertDebt(ctx, debt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// priceLine computes the snapshot price for a line and applies the stock
// delta to the locked product.
func priceLine(product *catalog.Product, line LineInput) (Line, error) {
	saleType := line.SaleType
	if saleType == "" {
		saleType = SaleTypeUnit
	}

	var unitPrice float64
	var err error
	switch saleType {
	case SaleTypePackage:
		unitPrice = product.SellPrice()
		err = product.ApplyPackageDelta(line.Quantity)
	default:
		unitPrice = product.UnitPrice()
		err = product.ApplyStockDelta(line.Quantity)
	}
	if err != nil {
		return Line{}, err
	}

	return Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    line.Quantity,
		SaleType:    saleType,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice * float64(line.Quantity),
	}, nil
}

// ListSales returns sales newest first. limit <= 0 returns all.
func (s *Service) ListSales(ctx context.Context, limit int64) ([]Sale, error) {
	return s.repo.ListSales(ctx, limit)
}

// RecentSales returns the 10 most recent sales, newest first.
func (s *Service) RecentSales(ctx context.Context) ([]Sale, error) {
	return s.repo.ListSales(ctx, 10)
}
