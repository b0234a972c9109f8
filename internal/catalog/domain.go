package catalog

import (
	"errors"
	"time"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// Product models a catalog entry. Stock is tracked as whole packages plus
// loose units; sale and unit prices are derived, never stored.
type Product struct {
	ID              int64
	Name            string
	Description     string
	PurchasePrice   float64
	ProfitPct       float64
	UnitsPerPackage int64
	PackageCount    int64
	LooseUnits      int64
	CategoryID      *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Category groups products for filtering and display.
type Category struct {
	ID          int64
	Name        string
	Description string
	Color       string
	Icon        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultProfitPct applies when a product is created without a margin.
const DefaultProfitPct = 20

// ErrInvalidQuantity indicates a negative units-sold argument.
var ErrInvalidQuantity = errors.New("catalog: quantity must not be negative")

// SellPrice returns the sale price for a whole package.
func (p Product) SellPrice() float64 {
	return p.PurchasePrice * (1 + p.ProfitPct/100)
}

// UnitPrice returns the sale price for a single unit within a package.
func (p Product) UnitPrice() float64 {
	perPackage := p.UnitsPerPackage
	if perPackage < 1 {
		perPackage = 1
	}
	return p.SellPrice() / float64(perPackage)
}

// TotalUnits returns the stock expressed in individual units.
func (p Product) TotalUnits() int64 {
	return p.PackageCount*p.UnitsPerPackage + p.LooseUnits
}

// AvailableUnits is the quantity a unit-based sale line may request.
func (p Product) AvailableUnits() int64 {
	return p.TotalUnits()
}

// ApplyStockDelta removes unitsSold individual units from stock. Loose units
// are consumed first; when they run out, the minimum number of packages
// needed to cover the shortfall is broken open and the remainder becomes the
// new loose-unit count. The availability check is repeated here so counters
// can never go negative even if a caller skipped the pre-check.
func (p *Product) ApplyStockDelta(unitsSold int64) error {
	if unitsSold < 0 {
		return ErrInvalidQuantity
	}
	if unitsSold == 0 {
		return nil
	}
	if unitsSold > p.AvailableUnits() {
		return &shared.InsufficientStockError{
			Product:   p.Name,
			Requested: unitsSold,
			Available: p.AvailableUnits(),
			Unit:      "unidades",
		}
	}
	if p.LooseUnits >= unitsSold {
		p.LooseUnits -= unitsSold
		return nil
	}
	short := unitsSold - p.LooseUnits
	packagesToBreak := (short + p.UnitsPerPackage - 1) / p.UnitsPerPackage
	p.LooseUnits = packagesToBreak*p.UnitsPerPackage - short
	p.PackageCount -= packagesToBreak
	return nil
}

// ApplyPackageDelta removes whole sealed packages from stock.
func (p *Product) ApplyPackageDelta(packagesSold int64) error {
	if packagesSold < 0 {
		return ErrInvalidQuantity
	}
	if packagesSold == 0 {
		return nil
	}
	if packagesSold > p.PackageCount {
		return &shared.InsufficientStockError{
			Product:   p.Name,
			Requested: packagesSold,
			Available: p.PackageCount,
			Unit:      "paquetes",
		}
	}
	p.PackageCount -= packagesSold
	return nil
}
