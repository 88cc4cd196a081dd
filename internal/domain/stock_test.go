package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name         string
		quantity     int
		reorderPoint int
		want         StockStatus
	}{
		{"empty shelf", 0, 10, StockNearRestock},
		{"empty shelf zero reorder point", 0, 0, StockNearRestock},
		{"below reorder point", 5, 10, StockLowStock},
		{"at reorder point", 10, 10, StockLowStock},
		{"above reorder point", 15, 10, StockInStock},
		{"one unit zero reorder point", 1, 0, StockInStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStock(tt.quantity, tt.reorderPoint))
		})
	}
}

func TestClassifyStock_Total(t *testing.T) {
	for q := 0; q <= 40; q++ {
		for rp := 0; rp <= 40; rp++ {
			got := ClassifyStock(q, rp)
			switch got {
			case StockInStock, StockLowStock, StockNearRestock:
			default:
				t.Fatalf("ClassifyStock(%d, %d) = %q", q, rp, got)
			}
			if q == 0 {
				require.Equal(t, StockNearRestock, got, "reorder point %d", rp)
			}
		}
	}
}

func TestClassifySupply(t *testing.T) {
	assert.Equal(t, SupplyReorderRequired, ClassifySupply(10, 10))
	assert.Equal(t, SupplyReorderRequired, ClassifySupply(0, 10))
	assert.Equal(t, SupplyLowStock, ClassifySupply(11, 10))
	assert.Equal(t, SupplyLowStock, ClassifySupply(20, 10))
	assert.Equal(t, SupplySufficient, ClassifySupply(21, 10))
}

func TestPoliciesDiverge(t *testing.T) {
	// 15 units against a reorder point of 10 is in stock on the board
	// but still low on the registration screen.
	assert.Equal(t, StockInStock, ClassifyStock(15, 10))
	assert.Equal(t, SupplyLowStock, ClassifySupply(15, 10))
}

func TestNewRestockOrder(t *testing.T) {
	med := Medication{ID: "m1", Name: "Metformin", Quantity: 3, ReorderPoint: 10, Category: CategoryDiabetes}
	today := NewDate(2026, 3, 1)

	o := NewRestockOrder(med, 50, "B-2", Date{}, today)

	assert.Equal(t, "m1", o.MedicationID)
	assert.Equal(t, "Metformin", o.Name)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.False(t, o.IsDelivered)
	assert.Equal(t, CategoryDiabetes, o.Category)
	assert.True(t, o.ExpectedDeliveryDate.Equal(NewDate(2026, 3, 8)))
	assert.True(t, o.Consistent())

	custom := NewRestockOrder(med, 50, "B-2", NewDate(2026, 3, 3), today)
	assert.True(t, custom.ExpectedDeliveryDate.Equal(NewDate(2026, 3, 3)))
}

func TestRestockOrder_Complete(t *testing.T) {
	o := RestockOrder{Status: OrderStatusPending}
	o.Complete()
	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.True(t, o.IsDelivered)
	assert.True(t, o.Consistent())

	broken := RestockOrder{Status: OrderStatusPending, IsDelivered: true}
	assert.False(t, broken.Consistent())
}

func TestRestockOrder_Overdue(t *testing.T) {
	today := NewDate(2026, 3, 10)
	o := RestockOrder{Status: OrderStatusPending, ExpectedDeliveryDate: NewDate(2026, 3, 9)}
	assert.True(t, o.Overdue(today))

	o.ExpectedDeliveryDate = today
	assert.False(t, o.Overdue(today))

	o.ExpectedDeliveryDate = NewDate(2026, 3, 1)
	o.Complete()
	assert.False(t, o.Overdue(today))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Diabetes ")
	require.NoError(t, err)
	assert.Equal(t, CategoryDiabetes, c)

	c, err = ParseCategory("all")
	require.NoError(t, err)
	assert.Equal(t, CategoryAll, c)

	_, err = ParseCategory("dermatology")
	assert.Error(t, err)
	assert.False(t, CategoryAll.IsValid())
}

func TestDateJSON(t *testing.T) {
	o := RestockOrder{ID: "o1", OrderDate: NewDate(2026, 1, 31)}
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"order_date":"2026-01-31"`)
	assert.Contains(t, string(b), `"expected_delivery_date":null`)

	var back RestockOrder
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.OrderDate.Equal(o.OrderDate))
	assert.True(t, back.ExpectedDeliveryDate.IsZero())

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-02-03T15:04:05Z"`), &d))
	assert.Equal(t, "2026-02-03", d.String())
	assert.Error(t, json.Unmarshal([]byte(`"03/02/2026"`), &d))
}
