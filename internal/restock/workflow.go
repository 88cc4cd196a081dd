package restock

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"medrestock/internal/config"
	"medrestock/internal/domain"
	"medrestock/pkg/metrics"
)

// Inventory is everything the workflow needs from the inventory service.
type Inventory interface {
	Source
	Gateway
}

// Workflow is the surface the presentation layer talks to.
type Workflow struct {
	board   *Board
	poller  *Poller
	manager *Manager
	logger  *zap.Logger
}

func NewWorkflow(inv Inventory, cfg config.PollConfig, m *metrics.Collector, logger *zap.Logger) *Workflow {
	board := NewBoard()
	poller := NewPoller(NewReconciler(inv), board, cfg, m, logger)
	return &Workflow{
		board:   board,
		poller:  poller,
		manager: NewManager(inv, board, poller, m, logger),
		logger:  logger,
	}
}

// Activate starts polling for the lifetime of ctx or until Deactivate.
func (w *Workflow) Activate(ctx context.Context) { w.poller.Start(ctx) }

func (w *Workflow) Deactivate() { w.poller.Stop() }

func (w *Workflow) Active() bool { return w.poller.Running() }

func (w *Workflow) NeedsRestock() []MedicationView { return w.board.NeedsRestock() }
func (w *Workflow) Processing() []OrderView        { return w.board.Processing() }
func (w *Workflow) Completed() []OrderView         { return w.board.Completed() }
func (w *Workflow) Display() Display               { return w.board.Display() }

// SubmitRestock looks the medication up on the board when the caller only
// knows its id.
func (w *Workflow) SubmitRestock(ctx context.Context, in RestockInput) Outcome {
	if in.Medication.ID != "" && in.Medication.Name == "" {
		if m, ok := w.board.FindMedication(in.Medication.ID); ok {
			in.Medication = m
		}
	}
	return w.manager.SubmitRestock(ctx, in)
}

func (w *Workflow) ConfirmDelivery(ctx context.Context, orderID string) Outcome {
	return w.manager.ConfirmDelivery(ctx, orderID)
}

func (w *Workflow) Refresh(ctx context.Context) Outcome {
	if err := w.poller.Refresh(ctx, TriggerManual); err != nil {
		return failure(err)
	}
	return success("Inventory refreshed.")
}

// Focus is called when the board becomes visible. A throttled focus is not
// an error: the board was refreshed moments ago.
func (w *Workflow) Focus(ctx context.Context) Outcome {
	err := w.poller.Focus(ctx)
	switch {
	case errors.Is(err, ErrThrottled):
		return success("Inventory is up to date.")
	case err != nil:
		return failure(err)
	}
	return success("Inventory refreshed.")
}

func (w *Workflow) SetCategoryFilter(raw string) Outcome {
	c, err := domain.ParseCategory(raw)
	if err != nil {
		return failure(&ValidationError{Fields: []string{err.Error()}})
	}
	w.board.SetFilter(c)
	return success("Showing category " + string(c) + ".")
}

func (w *Workflow) SetView(raw string) Outcome {
	v, err := ParseView(raw)
	if err != nil {
		return failure(&ValidationError{Fields: []string{err.Error()}})
	}
	w.board.SetView(v)
	return success("Showing " + string(v) + ".")
}
