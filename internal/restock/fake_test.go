package restock

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"medrestock/internal/config"
	"medrestock/internal/domain"
	"medrestock/pkg/metrics"
)

var testToday = domain.NewDate(2026, 3, 10)

// fakeInventory is an in-memory Inventory with switchable failures.
type fakeInventory struct {
	mu     sync.Mutex
	meds   []domain.Medication
	orders []domain.RestockOrder

	lowErr      error
	ordersErr   error
	createErr   error
	completeErr error

	lowCalls  int
	creates   int
	completes int

	// when set, LowStockMedications waits for it to close
	block chan struct{}
}

func (f *fakeInventory) LowStockMedications(ctx context.Context) ([]domain.Medication, error) {
	f.mu.Lock()
	f.lowCalls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lowErr != nil {
		return nil, f.lowErr
	}
	var out []domain.Medication
	for _, m := range f.meds {
		if m.Quantity <= m.ReorderPoint {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeInventory) RestockOrders(ctx context.Context) ([]domain.RestockOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	out := make([]domain.RestockOrder, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeInventory) CreateRestockOrder(ctx context.Context, o domain.RestockOrder) (*domain.RestockOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	o.ID = fmt.Sprintf("o-%d", len(f.orders)+1)
	// the service copies name and category from its own record
	for _, m := range f.meds {
		if m.ID == o.MedicationID {
			o.Name = m.Name
			o.Category = m.Category
		}
	}
	f.orders = append(f.orders, o)
	return &o, nil
}

func (f *fakeInventory) CompleteRestockOrder(ctx context.Context, id string) (*domain.RestockOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Complete()
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %s not found", id)
}

func (f *fakeInventory) calls() (low, creates, completes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lowCalls, f.creates, f.completes
}

func (f *fakeInventory) set(fn func(f *fakeInventory)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func testPollConfig() config.PollConfig {
	return config.PollConfig{Interval: time.Hour, FocusMinInterval: time.Hour, CycleTimeout: 5 * time.Second}
}

func testMetrics() *metrics.Collector {
	return metrics.NewCollector("test", prometheus.NewRegistry())
}

// newTestWorkflow wires a workflow whose clocks are pinned to testToday.
func newTestWorkflow(t *testing.T, inv *fakeInventory) (*Workflow, *metrics.Collector) {
	t.Helper()
	m := testMetrics()
	w := NewWorkflow(inv, testPollConfig(), m, zap.NewNop())
	pinned := func() time.Time { return testToday.Time().Add(9 * time.Hour) }
	w.poller.rec.now = pinned
	w.manager.now = pinned
	return w, m
}

func med(id, name string, qty, reorder int, c domain.Category) domain.Medication {
	return domain.Medication{ID: id, Name: name, Quantity: qty, ReorderPoint: reorder, Category: c, Batch: "B1"}
}
