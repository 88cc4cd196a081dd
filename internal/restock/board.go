package restock

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"medrestock/internal/domain"
)

// View is the display set the UI is currently showing.
type View string

const (
	ViewNeedsRestock View = "needs-restock"
	ViewProcessing   View = "processing"
	ViewCompleted    View = "completed"
)

func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewNeedsRestock, ViewProcessing, ViewCompleted:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Board holds the latest applied snapshot and the UI state around it. Only a
// reconciliation cycle replaces the snapshot.
type Board struct {
	mu          sync.RWMutex
	snap        Snapshot
	applied     uint64
	filter      domain.Category
	view        View
	refreshedAt time.Time
	lastErr     string
}

func NewBoard() *Board {
	return &Board{filter: domain.CategoryAll, view: ViewNeedsRestock}
}

// Apply replaces the snapshot unless a newer cycle has already been applied.
func (b *Board) Apply(seq uint64, snap Snapshot, at time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq <= b.applied {
		return false
	}
	b.applied = seq
	b.snap = snap
	b.refreshedAt = at
	b.lastErr = ""
	return true
}

// Fail records a failed cycle. The previous snapshot stays in place.
func (b *Board) Fail(seq uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq <= b.applied {
		return
	}
	b.lastErr = userMessage(err)
}

func (b *Board) SetFilter(c domain.Category) {
	b.mu.Lock()
	b.filter = c
	b.mu.Unlock()
}

func (b *Board) Filter() domain.Category {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

func (b *Board) SetView(v View) {
	b.mu.Lock()
	b.view = v
	b.mu.Unlock()
}

func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}

func (b *Board) filtered() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap.Filter(b.filter)
}

func (b *Board) NeedsRestock() []MedicationView { return b.filtered().NeedsRestock }
func (b *Board) Processing() []OrderView        { return b.filtered().Processing }
func (b *Board) Completed() []OrderView         { return b.filtered().Completed }

// FindOrder looks an order up by id in the unfiltered snapshot.
func (b *Board) FindOrder(id string) (OrderView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, set := range [][]OrderView{b.snap.Processing, b.snap.Completed} {
		for _, o := range set {
			if o.ID == id {
				return o, true
			}
		}
	}
	return OrderView{}, false
}

// FindMedication looks a medication up by id among those needing restock.
func (b *Board) FindMedication(id string) (domain.Medication, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, m := range b.snap.NeedsRestock {
		if m.ID == id {
			return m.Medication, true
		}
	}
	return domain.Medication{}, false
}

// Display is everything the presentation layer renders in one read.
type Display struct {
	NeedsRestock []MedicationView `json:"needsRestock"`
	Processing   []OrderView      `json:"processing"`
	Completed    []OrderView      `json:"completed"`
	Filter       domain.Category  `json:"filter"`
	View         View             `json:"view"`
	RefreshedAt  *time.Time       `json:"refreshedAt,omitempty"`
	LastError    string           `json:"lastError,omitempty"`
}

func (b *Board) Display() Display {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.snap.Filter(b.filter)
	d := Display{
		NeedsRestock: s.NeedsRestock,
		Processing:   s.Processing,
		Completed:    s.Completed,
		Filter:       b.filter,
		View:         b.view,
		LastError:    b.lastErr,
	}
	if !b.refreshedAt.IsZero() {
		at := b.refreshedAt
		d.RefreshedAt = &at
	}
	return d
}
