package restock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"medrestock/internal/domain"
	"medrestock/internal/inventory"
	"medrestock/pkg/metrics"
)

// Gateway is the write side of the inventory service.
type Gateway interface {
	CreateRestockOrder(ctx context.Context, o domain.RestockOrder) (*domain.RestockOrder, error)
	CompleteRestockOrder(ctx context.Context, id string) (*domain.RestockOrder, error)
}

// Refresher runs a reconciliation cycle on demand.
type Refresher interface {
	Refresh(ctx context.Context, trigger Trigger) error
}

// RestockInput is the restock form as the user filled it in. Quantity stays a
// string until validation.
type RestockInput struct {
	Medication           domain.Medication
	Quantity             string
	NextBatch            string
	ExpectedDeliveryDate domain.Date
}

// Outcome is the two-way result of a user action. Message goes to the
// display collaborator verbatim.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func success(msg string) Outcome { return Outcome{OK: true, Message: msg} }

func failure(err error) Outcome { return Outcome{Message: userMessage(err), Err: err} }

// Manager drives the Pending -> Completed lifecycle through the gateway.
type Manager struct {
	gw        Gateway
	board     *Board
	refresher Refresher
	metrics   *metrics.Collector
	logger    *zap.Logger
	now       func() time.Time
}

func NewManager(gw Gateway, board *Board, refresher Refresher, m *metrics.Collector, logger *zap.Logger) *Manager {
	return &Manager{gw: gw, board: board, refresher: refresher, metrics: m, logger: logger, now: time.Now}
}

// Validate checks the form without touching the network.
func Validate(in RestockInput, today domain.Date) (quantity int, nextBatch string, err error) {
	var fields []string

	if strings.TrimSpace(in.Medication.ID) == "" {
		fields = append(fields, "medication is missing an id")
	}
	quantity, convErr := strconv.Atoi(strings.TrimSpace(in.Quantity))
	if convErr != nil || quantity <= 0 {
		fields = append(fields, "quantity must be a whole number greater than zero")
	}
	nextBatch = strings.TrimSpace(in.NextBatch)
	if nextBatch == "" {
		fields = append(fields, "batch number is required")
	}
	if !in.ExpectedDeliveryDate.IsZero() && in.ExpectedDeliveryDate.Before(today) {
		fields = append(fields, "expected delivery date cannot be in the past")
	}

	if len(fields) > 0 {
		return 0, "", &ValidationError{Fields: fields}
	}
	return quantity, nextBatch, nil
}

// SubmitRestock creates a Pending order. On failure nothing local changes and
// the same input can be submitted again.
func (m *Manager) SubmitRestock(ctx context.Context, in RestockInput) Outcome {
	today := domain.DateOf(m.now())
	quantity, nextBatch, err := Validate(in, today)
	if err != nil {
		m.metrics.RestockSubmissionsTotal.WithLabelValues(resultLabel(err)).Inc()
		return failure(err)
	}

	order := domain.NewRestockOrder(in.Medication, quantity, nextBatch, in.ExpectedDeliveryDate, today)
	created, err := m.gw.CreateRestockOrder(ctx, order)
	m.metrics.RestockSubmissionsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		m.logger.Warn("restock submission failed",
			zap.String("medication_id", in.Medication.ID),
			zap.Error(err),
		)
		return failure(err)
	}

	m.logger.Info("restock order submitted",
		zap.String("order_id", created.ID),
		zap.String("medication_id", created.MedicationID),
		zap.Int("quantity", created.Quantity),
	)
	m.afterMutation(ctx)
	m.board.SetView(ViewProcessing)
	name := created.Name
	if name == "" {
		name = in.Medication.Name
	}
	if name == "" {
		name = created.MedicationID
	}
	return success(fmt.Sprintf("Restock order for %s submitted.", name))
}

// ConfirmDelivery completes an order. Confirming an order that is already
// completed succeeds without changing anything.
func (m *Manager) ConfirmDelivery(ctx context.Context, orderID string) Outcome {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		err := &ValidationError{Fields: []string{"order id is required"}}
		m.metrics.DeliveryConfirmsTotal.WithLabelValues(resultLabel(err)).Inc()
		return failure(err)
	}

	name := orderID
	if known, ok := m.board.FindOrder(orderID); ok {
		if known.Name != "" {
			name = known.Name
		}
		if known.IsCompleted() {
			m.metrics.DeliveryConfirmsTotal.WithLabelValues("already_completed").Inc()
			return success(fmt.Sprintf("Delivery for %s was already confirmed.", name))
		}
	}

	_, err := m.gw.CompleteRestockOrder(ctx, orderID)
	switch {
	case errors.Is(err, inventory.ErrAlreadyCompleted):
		m.metrics.DeliveryConfirmsTotal.WithLabelValues("already_completed").Inc()
		m.afterMutation(ctx)
		return success(fmt.Sprintf("Delivery for %s was already confirmed.", name))
	case err != nil:
		m.metrics.DeliveryConfirmsTotal.WithLabelValues(resultLabel(err)).Inc()
		m.logger.Warn("delivery confirmation failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return failure(err)
	}

	m.metrics.DeliveryConfirmsTotal.WithLabelValues("success").Inc()
	m.logger.Info("delivery confirmed", zap.String("order_id", orderID))
	m.afterMutation(ctx)
	return success(fmt.Sprintf("Delivery for %s confirmed.", name))
}

// afterMutation refreshes the board. The mutation already succeeded, so a
// failed refresh is only logged; the next cycle will pick it up.
func (m *Manager) afterMutation(ctx context.Context) {
	if m.refresher == nil {
		return
	}
	if err := m.refresher.Refresh(ctx, TriggerMutation); err != nil && !errors.Is(err, ErrStopped) {
		m.logger.Warn("post-mutation refresh failed", zap.Error(err))
	}
}
