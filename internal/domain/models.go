package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category is the medical condition a medication is filed under.
type Category string

const (
	CategoryDiabetes       Category = "diabetes"
	CategoryCardiovascular Category = "cardiovascular"
	CategoryCancer         Category = "cancer"
	CategoryKidney         Category = "kidney"
	CategoryStroke         Category = "stroke"
	CategoryArthritis      Category = "arthritis"

	// CategoryAll is a filter value only; no record carries it.
	CategoryAll Category = "all"
)

var categories = []Category{
	CategoryDiabetes,
	CategoryCardiovascular,
	CategoryCancer,
	CategoryKidney,
	CategoryStroke,
	CategoryArthritis,
}

// Categories returns the fixed set of record categories.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts any record category or "all".
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryAll || c.IsValid() {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Medication is an inventory record. Stock status is derived, never stored.
type Medication struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Quantity     int      `json:"quantity"`
	ReorderPoint int      `json:"reorderPoint"`
	Category     Category `json:"category"`
	Batch        string   `json:"batch"`
	NextBatch    string   `json:"next_batch,omitempty"`
}

// Status recomputes the stock status from the current quantity.
func (m Medication) Status() StockStatus {
	return ClassifyStock(m.Quantity, m.ReorderPoint)
}

// OrderStatus is the restock order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
)

func (s OrderStatus) IsValid() bool {
	return s == OrderStatusPending || s == OrderStatusCompleted
}

// DefaultDeliveryLead is added to the order date when no expected delivery date is given.
const DefaultDeliveryLead = 7

// RestockOrder is a request to replenish one medication.
type RestockOrder struct {
	ID                   string      `json:"id"`
	MedicationID         string      `json:"medication_id"`
	Name                 string      `json:"name"`
	Quantity             int         `json:"quantity"`
	NextBatch            string      `json:"next_batch"`
	OrderDate            Date        `json:"order_date"`
	ExpectedDeliveryDate Date        `json:"expected_delivery_date"`
	Status               OrderStatus `json:"status"`
	IsDelivered          bool        `json:"isDelivered"`
	// Category at order time. Not joined against the medication on read.
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRestockOrder builds a Pending order for med. A zero expected date
// defaults to orderDate + DefaultDeliveryLead days.
func NewRestockOrder(med Medication, quantity int, nextBatch string, expected, orderDate Date) RestockOrder {
	if expected.IsZero() {
		expected = orderDate.AddDays(DefaultDeliveryLead)
	}
	return RestockOrder{
		MedicationID:         med.ID,
		Name:                 med.Name,
		Quantity:             quantity,
		NextBatch:            nextBatch,
		OrderDate:            orderDate,
		ExpectedDeliveryDate: expected,
		Status:               OrderStatusPending,
		IsDelivered:          false,
		Category:             med.Category,
	}
}

// Complete moves the order to its terminal state. Status and delivery flag
// always change together.
func (o *RestockOrder) Complete() {
	o.Status = OrderStatusCompleted
	o.IsDelivered = true
}

func (o RestockOrder) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// Consistent reports whether status and isDelivered agree.
func (o RestockOrder) Consistent() bool {
	return (o.Status == OrderStatusCompleted) == o.IsDelivered
}

// Overdue is informational only: a Pending order whose expected delivery
// date is before today.
func (o RestockOrder) Overdue(today Date) bool {
	return o.Status == OrderStatusPending && o.ExpectedDeliveryDate.Before(today)
}
