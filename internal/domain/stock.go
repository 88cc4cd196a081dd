package domain

// StockStatus is the restock board classification of a medication.
type StockStatus string

const (
	StockInStock     StockStatus = "InStock"
	StockLowStock    StockStatus = "LowStock"
	StockNearRestock StockStatus = "NearRestock"
)

// ClassifyStock is the restock-board policy. First match wins:
// an empty shelf is always NearRestock, whatever the reorder point.
func ClassifyStock(quantity, reorderPoint int) StockStatus {
	switch {
	case quantity == 0:
		return StockNearRestock
	case quantity <= reorderPoint:
		return StockLowStock
	default:
		return StockInStock
	}
}

// SupplyLevel is the medication-registration classification. It is not
// interchangeable with StockStatus: the thresholds differ.
type SupplyLevel string

const (
	SupplyReorderRequired SupplyLevel = "Reorder Required"
	SupplyLowStock        SupplyLevel = "Low Stock"
	SupplySufficient      SupplyLevel = "Sufficient Stock"
)

// SupplyLowStockMargin is how far above the reorder point stock still counts as low.
const SupplyLowStockMargin = 10

// ClassifySupply is the registration-screen policy.
func ClassifySupply(current, reorder int) SupplyLevel {
	switch {
	case current <= reorder:
		return SupplyReorderRequired
	case current <= reorder+SupplyLowStockMargin:
		return SupplyLowStock
	default:
		return SupplySufficient
	}
}
