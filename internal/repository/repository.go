package repository

import (
	"context"
	"errors"
	"strings"

	"medrestock/internal/domain"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("not found")

// MedicationFilter narrows a medication listing.
type MedicationFilter struct {
	NameSubstring string
	Category      domain.Category
	// LowStockOnly keeps medications at or below their reorder point.
	LowStockOnly bool
}

type MedicationRepository interface {
	Create(ctx context.Context, m *domain.Medication) error
	GetByID(ctx context.Context, id string) (*domain.Medication, error)
	Update(ctx context.Context, m *domain.Medication) error
	List(ctx context.Context, f MedicationFilter) ([]domain.Medication, error)
}

// RestockOrderFilter narrows an order listing. Zero values match everything.
type RestockOrderFilter struct {
	Status       domain.OrderStatus
	MedicationID string
}

type RestockOrderRepository interface {
	Create(ctx context.Context, o *domain.RestockOrder) error
	GetByID(ctx context.Context, id string) (*domain.RestockOrder, error)
	Update(ctx context.Context, o *domain.RestockOrder) error
	List(ctx context.Context, f RestockOrderFilter) ([]domain.RestockOrder, error)
}

// TxManager runs fn atomically with respect to other repository calls.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (f MedicationFilter) matches(m domain.Medication) bool {
	if !containsIgnoreCase(m.Name, f.NameSubstring) {
		return false
	}
	if f.Category != "" && f.Category != domain.CategoryAll && m.Category != f.Category {
		return false
	}
	if f.LowStockOnly && m.Quantity > m.ReorderPoint {
		return false
	}
	return true
}

func (f RestockOrderFilter) matches(o domain.RestockOrder) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.MedicationID != "" && o.MedicationID != f.MedicationID {
		return false
	}
	return true
}
