package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

func stockProduct(packages, loose, perPackage int64) Product {
	return Product{
		Name:            "Arroz",
		PurchasePrice:   10,
		ProfitPct:       20,
		UnitsPerPackage: perPackage,
		PackageCount:    packages,
		LooseUnits:      loose,
	}
}

func TestDerivedPrices(t *testing.T) {
	p := stockProduct(2, 2, 5)
	require.InDelta(t, 12.00, p.SellPrice(), 1e-9)
	require.InDelta(t, 2.40, p.UnitPrice(), 1e-9)
	require.Equal(t, int64(12), p.TotalUnits())
	require.Equal(t, int64(12), p.AvailableUnits())
}

func TestApplyStockDeltaLooseOnly(t *testing.T) {
	p := stockProduct(2, 5, 10)
	require.NoError(t, p.ApplyStockDelta(3))
	require.Equal(t, int64(2), p.PackageCount)
	require.Equal(t, int64(2), p.LooseUnits)
}

func TestApplyStockDeltaBreaksPackage(t *testing.T) {
	// 2 packages of 10 plus 3 loose, sell 5: the 3 loose go first, one
	// package is opened for the remaining 2, leaving 1 package + 8 loose.
	p := stockProduct(2, 3, 10)
	require.NoError(t, p.ApplyStockDelta(5))
	require.Equal(t, int64(1), p.PackageCount)
	require.Equal(t, int64(8), p.LooseUnits)
}

func TestApplyStockDeltaBreaksMultiplePackages(t *testing.T) {
	p := stockProduct(3, 1, 4)
	require.NoError(t, p.ApplyStockDelta(10))
	require.Equal(t, int64(0), p.PackageCount)
	require.Equal(t, int64(3), p.LooseUnits)
}

func TestApplyStockDeltaExactDepletion(t *testing.T) {
	p := stockProduct(2, 2, 5)
	require.NoError(t, p.ApplyStockDelta(12))
	require.Equal(t, int64(0), p.PackageCount)
	require.Equal(t, int64(0), p.LooseUnits)
}

func TestApplyStockDeltaZeroIsNoop(t *testing.T) {
	p := stockProduct(2, 3, 10)
	require.NoError(t, p.ApplyStockDelta(0))
	require.Equal(t, int64(2), p.PackageCount)
	require.Equal(t, int64(3), p.LooseUnits)
}

func TestApplyStockDeltaRejectsNegative(t *testing.T) {
	p := stockProduct(2, 3, 10)
	require.ErrorIs(t, p.ApplyStockDelta(-1), ErrInvalidQuantity)
}

func TestApplyStockDeltaInsufficient(t *testing.T) {
	p := stockProduct(1, 1, 5)
	err := p.ApplyStockDelta(7)

	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int64(7), stockErr.Requested)
	require.Equal(t, int64(6), stockErr.Available)
	require.Equal(t, "unidades", stockErr.Unit)

	// Counters untouched on failure.
	require.Equal(t, int64(1), p.PackageCount)
	require.Equal(t, int64(1), p.LooseUnits)
}

func TestApplyPackageDelta(t *testing.T) {
	p := stockProduct(3, 4, 5)
	require.NoError(t, p.ApplyPackageDelta(2))
	require.Equal(t, int64(1), p.PackageCount)
	require.Equal(t, int64(4), p.LooseUnits)

	err := p.ApplyPackageDelta(2)
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "paquetes", stockErr.Unit)
	require.Equal(t, int64(1), p.PackageCount)
}

func TestUnitPriceGuardsZeroPerPackage(t *testing.T) {
	p := stockProduct(1, 0, 0)
	require.InDelta(t, p.SellPrice(), p.UnitPrice(), 1e-9)
}
