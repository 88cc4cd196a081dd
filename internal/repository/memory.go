package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"medrestock/internal/domain"
)

// MemoryStore holds medications and restock orders in insertion order.
type MemoryStore struct {
	mu          sync.RWMutex
	medications map[string]domain.Medication
	medOrder    []string
	orders      map[string]domain.RestockOrder
	orderSeq    []string
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		medications: make(map[string]domain.Medication),
		orders:      make(map[string]domain.RestockOrder),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

var _ MedicationRepository = (*MemoryStore)(nil)

// Create assigns an id when the caller left it empty.
func (m *MemoryStore) Create(ctx context.Context, med *domain.Medication) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	if _, exists := m.medications[med.ID]; !exists {
		m.medOrder = append(m.medOrder, med.ID)
	}
	m.medications[med.ID] = *med
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Medication, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	med, ok := m.medications[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := med
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, med *domain.Medication) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.medications[med.ID]; !ok {
		return ErrNotFound
	}
	m.medications[med.ID] = *med
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f MedicationFilter) ([]domain.Medication, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Medication, 0)
	for _, id := range m.medOrder {
		med := m.medications[id]
		if f.matches(med) {
			out = append(out, med)
		}
	}
	return out, nil
}

// MemoryOrders implements RestockOrderRepository on the shared store.
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ RestockOrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.RestockOrder) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = mo.store.now()
	o.UpdatedAt = o.CreatedAt
	if _, exists := mo.store.orders[o.ID]; !exists {
		mo.store.orderSeq = append(mo.store.orderSeq, o.ID)
	}
	mo.store.orders[o.ID] = *o
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.RestockOrder, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.RestockOrder) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.orders[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = mo.store.now()
	mo.store.orders[o.ID] = *o
	return nil
}

func (mo *MemoryOrders) List(ctx context.Context, f RestockOrderFilter) ([]domain.RestockOrder, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.RestockOrder, 0)
	for _, id := range mo.store.orderSeq {
		o := mo.store.orders[id]
		if f.matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// MemoryTx emulates a transaction boundary with the store's write lock.
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	// Repositories skip their own locks while the context carries txKey.
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}
