package restock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"medrestock/internal/domain"
)

// MedicationView is a low-stock medication as shown on the board.
type MedicationView struct {
	Key string `json:"key"`
	domain.Medication
	Status domain.StockStatus `json:"status"`
}

// OrderView is a restock order as shown on the board.
type OrderView struct {
	Key string `json:"key"`
	domain.RestockOrder
	Overdue bool `json:"overdue"`
}

// Snapshot is the output of one reconciliation cycle. Sets are unfiltered;
// category filtering happens on read.
type Snapshot struct {
	NeedsRestock []MedicationView
	Processing   []OrderView
	Completed    []OrderView
	Today        domain.Date
}

// Reconcile partitions orders by status and drops every low-stock medication
// that already has a Pending order. Inputs are not modified.
func Reconcile(lowStock []domain.Medication, orders []domain.RestockOrder, today domain.Date) Snapshot {
	var processing, completed []domain.RestockOrder
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusPending:
			processing = append(processing, o)
		case domain.OrderStatusCompleted:
			completed = append(completed, o)
		}
	}

	openByID := make(map[string]struct{}, len(processing))
	openByName := make(map[string]struct{})
	for _, o := range processing {
		if o.MedicationID != "" {
			openByID[o.MedicationID] = struct{}{}
		} else if o.Name != "" {
			// orders from older clients only carry the medication name
			openByName[o.Name] = struct{}{}
		}
	}

	needs := make([]domain.Medication, 0, len(lowStock))
	for _, m := range lowStock {
		if _, open := openByID[m.ID]; open && m.ID != "" {
			continue
		}
		if _, open := openByName[m.Name]; open {
			continue
		}
		needs = append(needs, m)
	}

	snap := Snapshot{
		NeedsRestock: make([]MedicationView, len(needs)),
		Processing:   orderViews(processing, today),
		Completed:    orderViews(completed, today),
		Today:        today,
	}
	keys := AssignKeys(needs, func(m domain.Medication) string { return m.ID })
	for i, m := range needs {
		snap.NeedsRestock[i] = MedicationView{Key: keys[i], Medication: m, Status: m.Status()}
	}
	return snap
}

func orderViews(orders []domain.RestockOrder, today domain.Date) []OrderView {
	keys := AssignKeys(orders, func(o domain.RestockOrder) string { return o.ID })
	out := make([]OrderView, len(orders))
	for i, o := range orders {
		out[i] = OrderView{Key: keys[i], RestockOrder: o, Overdue: o.Overdue(today)}
	}
	return out
}

// Filter returns a copy with every set narrowed to category, order preserved.
// CategoryAll and the empty category pass everything through.
func (s Snapshot) Filter(category domain.Category) Snapshot {
	return Snapshot{
		NeedsRestock: filterByCategory(s.NeedsRestock, category, func(v MedicationView) domain.Category { return v.Category }),
		Processing:   filterByCategory(s.Processing, category, func(v OrderView) domain.Category { return v.Category }),
		Completed:    filterByCategory(s.Completed, category, func(v OrderView) domain.Category { return v.Category }),
		Today:        s.Today,
	}
}

func filterByCategory[T any](items []T, category domain.Category, of func(T) domain.Category) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if category == "" || category == domain.CategoryAll || of(it) == category {
			out = append(out, it)
		}
	}
	return out
}

// Source is the read side of the inventory service.
type Source interface {
	LowStockMedications(ctx context.Context) ([]domain.Medication, error)
	RestockOrders(ctx context.Context) ([]domain.RestockOrder, error)
}

// Reconciler runs the fetch half of a cycle against a Source.
type Reconciler struct {
	src Source
	now func() time.Time
}

func NewReconciler(src Source) *Reconciler {
	return &Reconciler{src: src, now: time.Now}
}

// Fetch issues both reads concurrently and merges only when both succeed.
func (r *Reconciler) Fetch(ctx context.Context) (Snapshot, error) {
	var (
		lowStock []domain.Medication
		orders   []domain.RestockOrder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lowStock, err = r.src.LowStockMedications(gctx)
		if err != nil {
			return fmt.Errorf("fetch low-stock medications: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = r.src.RestockOrders(gctx)
		if err != nil {
			return fmt.Errorf("fetch restock orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return Reconcile(lowStock, orders, domain.DateOf(r.now())), nil
}
