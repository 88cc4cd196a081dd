package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medrestock/internal/domain"
	"medrestock/internal/events"
	"medrestock/internal/repository"
	"medrestock/pkg/metrics"
)

var (
	ErrInvalidState = errors.New("invalid state")
	ErrOrderPending = errors.New("a pending restock order already exists for this medication")
)

// RestockService owns the restock order lifecycle on the inventory side:
// creation in Pending, and a single Pending -> Completed transition that
// restocks the medication.
type RestockService struct {
	orders      repository.RestockOrderRepository
	medications repository.MedicationRepository
	tx          repository.TxManager
	publisher   events.Publisher
	metrics     *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

func NewRestockService(
	orders repository.RestockOrderRepository,
	medications repository.MedicationRepository,
	tx repository.TxManager,
	publisher events.Publisher,
	m *metrics.Collector,
	log *zap.Logger,
) *RestockService {
	return &RestockService{
		orders:      orders,
		medications: medications,
		tx:          tx,
		publisher:   publisher,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// CreateRestockInput is what a client submits. Name and Category are
// informational; the stored order copies them from the medication record.
type CreateRestockInput struct {
	MedicationID         string
	Quantity             int
	NextBatch            string
	OrderDate            domain.Date
	ExpectedDeliveryDate domain.Date
}

func (s *RestockService) Create(ctx context.Context, in CreateRestockInput) (*domain.RestockOrder, error) {
	in.NextBatch = strings.TrimSpace(in.NextBatch)
	if strings.TrimSpace(in.MedicationID) == "" || in.Quantity <= 0 || in.NextBatch == "" {
		return nil, ErrInvalidInput
	}
	if in.OrderDate.IsZero() {
		in.OrderDate = domain.DateOf(s.now())
	}
	if !in.ExpectedDeliveryDate.IsZero() && in.ExpectedDeliveryDate.Before(in.OrderDate) {
		return nil, ErrInvalidInput
	}

	var created *domain.RestockOrder
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		med, err := s.medications.GetByID(ctx, in.MedicationID)
		if err != nil {
			return err
		}
		pending, err := s.orders.List(ctx, repository.RestockOrderFilter{
			Status:       domain.OrderStatusPending,
			MedicationID: med.ID,
		})
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return ErrOrderPending
		}

		o := domain.NewRestockOrder(*med, in.Quantity, in.NextBatch, in.ExpectedDeliveryDate, in.OrderDate)
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		med.NextBatch = o.NextBatch
		if err := s.medications.Update(ctx, med); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("restock order created",
		zap.String("order_id", created.ID),
		zap.String("medication_id", created.MedicationID),
		zap.Int("quantity", created.Quantity),
		zap.String("expected_delivery_date", created.ExpectedDeliveryDate.String()),
	)
	s.publish(ctx, events.TypeRestockOrderCreated, *created, nil)
	return created, nil
}

func (s *RestockService) GetByID(ctx context.Context, id string) (*domain.RestockOrder, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, id)
}

func (s *RestockService) List(ctx context.Context, f repository.RestockOrderFilter) ([]domain.RestockOrder, error) {
	return s.orders.List(ctx, f)
}

// CompletePatch is the body of the delivery-confirmation request. Status and
// IsDelivered must both describe the completed state.
type CompletePatch struct {
	ID          string
	IsDelivered bool
	Status      domain.OrderStatus
}

// Complete applies the Pending -> Completed transition and restocks the
// medication in the same transaction. Completing an already completed order
// returns it unchanged.
func (s *RestockService) Complete(ctx context.Context, id string, patch CompletePatch) (*domain.RestockOrder, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	if patch.ID != "" && patch.ID != id {
		return nil, ErrInvalidInput
	}
	if patch.Status != domain.OrderStatusCompleted || !patch.IsDelivered {
		return nil, ErrInvalidState
	}

	var (
		updated    *domain.RestockOrder
		stockAfter int
		applied    bool
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.IsCompleted() {
			updated = o
			return nil
		}

		med, err := s.medications.GetByID(ctx, o.MedicationID)
		if err != nil {
			return err
		}
		med.Quantity += o.Quantity
		med.Batch = o.NextBatch
		med.NextBatch = ""
		if err := s.medications.Update(ctx, med); err != nil {
			return err
		}

		o.Complete()
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		stockAfter = med.Quantity
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !applied {
		s.log.Debug("restock order already completed", zap.String("order_id", id))
		return updated, nil
	}
	s.log.Info("restock order delivered",
		zap.String("order_id", updated.ID),
		zap.String("medication_id", updated.MedicationID),
		zap.Int("stock_after", stockAfter),
	)
	s.publish(ctx, events.TypeRestockOrderDelivered, *updated, &stockAfter)
	return updated, nil
}

// publish is best effort: the order is already committed.
func (s *RestockService) publish(ctx context.Context, typ string, o domain.RestockOrder, stockAfter *int) {
	if s.publisher == nil {
		return
	}
	evt := events.RestockEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: s.now().UTC(),
		Order:      o,
		StockAfter: stockAfter,
	}
	result := "success"
	if err := s.publisher.Publish(ctx, evt); err != nil {
		result = "error"
		s.log.Warn("failed to publish restock event",
			zap.String("event_type", typ),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		s.metrics.EventsPublishedTotal.WithLabelValues(typ, result).Inc()
	}
}
