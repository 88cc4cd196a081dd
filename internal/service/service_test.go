package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medrestock/internal/domain"
	"medrestock/internal/events"
	"medrestock/internal/repository"
	"medrestock/pkg/metrics"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.RestockEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type fixture struct {
	meds    *MedicationService
	restock *RestockService
	pub     *mockPublisher
	metrics *metrics.Collector
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	orders := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	pub := &mockPublisher{}
	m := metrics.NewCollector("test", prometheus.NewRegistry())

	rs := NewRestockService(orders, store, tx, pub, m, zap.NewNop())
	rs.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return &fixture{
		meds:    NewMedicationService(store, tx, zap.NewNop()),
		restock: rs,
		pub:     pub,
		metrics: m,
	}
}

func (f *fixture) register(t *testing.T, name string, qty, reorder int) domain.Medication {
	t.Helper()
	reg, err := f.meds.Create(context.Background(), domain.Medication{
		Name: name, Quantity: qty, ReorderPoint: reorder, Category: domain.CategoryDiabetes, Batch: "B1",
	})
	require.NoError(t, err)
	return reg.Medication
}

func TestMedicationService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	reg, err := f.meds.Create(ctx, domain.Medication{
		Name: "  Metformin ", Quantity: 15, ReorderPoint: 10, Category: domain.CategoryDiabetes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Metformin", reg.Medication.Name)
	assert.NotEmpty(t, reg.Medication.ID)
	assert.Equal(t, domain.SupplyLowStock, reg.SupplyLevel)

	_, err = f.meds.Create(ctx, domain.Medication{Name: "", Category: domain.CategoryDiabetes})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.meds.Create(ctx, domain.Medication{Name: "X", Quantity: -1, Category: domain.CategoryDiabetes})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.meds.Create(ctx, domain.Medication{Name: "X", Category: domain.CategoryAll})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMedicationService_LowStockAndAdjust(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	low := f.register(t, "Insulin", 0, 10)
	f.register(t, "Glipizide", 40, 10)

	list, err := f.meds.LowStock(ctx, domain.CategoryAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, low.ID, list[0].ID)

	m, err := f.meds.AdjustStock(ctx, low.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, m.Quantity)

	_, err = f.meds.AdjustStock(ctx, low.ID, -30)
	assert.ErrorIs(t, err, ErrNotEnoughStock)

	_, err = f.meds.AdjustStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRestockService_CreateAndComplete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	med := f.register(t, "Metformin", 2, 10)

	f.pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.RestockEvent) bool {
		return e.Type == events.TypeRestockOrderCreated && e.StockAfter == nil
	})).Return(nil).Once()
	f.pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.RestockEvent) bool {
		return e.Type == events.TypeRestockOrderDelivered && e.StockAfter != nil && *e.StockAfter == 52
	})).Return(nil).Once()

	o, err := f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 50, NextBatch: " B2 "})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.False(t, o.IsDelivered)
	assert.Equal(t, "B2", o.NextBatch)
	assert.Equal(t, domain.CategoryDiabetes, o.Category)
	assert.Equal(t, "2026-03-10", o.OrderDate.String())
	assert.Equal(t, "2026-03-17", o.ExpectedDeliveryDate.String())

	done, err := f.restock.Complete(ctx, o.ID, CompletePatch{ID: o.ID, IsDelivered: true, Status: domain.OrderStatusCompleted})
	require.NoError(t, err)
	assert.True(t, done.IsCompleted())
	assert.True(t, done.IsDelivered)

	after, err := f.meds.GetByID(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, 52, after.Quantity)
	assert.Equal(t, "B2", after.Batch)
	assert.Empty(t, after.NextBatch)

	f.pub.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsPublishedTotal.WithLabelValues(events.TypeRestockOrderDelivered, "success")))
}

func TestRestockService_CompleteIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	med := f.register(t, "Metformin", 2, 10)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	o, err := f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 10, NextBatch: "B2"})
	require.NoError(t, err)
	patch := CompletePatch{ID: o.ID, IsDelivered: true, Status: domain.OrderStatusCompleted}

	_, err = f.restock.Complete(ctx, o.ID, patch)
	require.NoError(t, err)
	again, err := f.restock.Complete(ctx, o.ID, patch)
	require.NoError(t, err)
	assert.True(t, again.IsCompleted())

	after, _ := f.meds.GetByID(ctx, med.ID)
	assert.Equal(t, 12, after.Quantity, "second confirmation must not restock again")
	f.pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestRestockService_CreateRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	med := f.register(t, "Metformin", 2, 10)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 0, NextBatch: "B2"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 5, NextBatch: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.restock.Create(ctx, CreateRestockInput{MedicationID: "missing", Quantity: 5, NextBatch: "B2"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.restock.Create(ctx, CreateRestockInput{
		MedicationID:         med.ID,
		Quantity:             5,
		NextBatch:            "B2",
		OrderDate:            domain.NewDate(2026, 3, 10),
		ExpectedDeliveryDate: domain.NewDate(2026, 3, 1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 5, NextBatch: "B2"})
	require.NoError(t, err)
	_, err = f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 5, NextBatch: "B3"})
	assert.ErrorIs(t, err, ErrOrderPending)
}

func TestRestockService_CompleteRejectsInconsistentPatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	med := f.register(t, "Metformin", 2, 10)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	o, err := f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 5, NextBatch: "B2"})
	require.NoError(t, err)

	_, err = f.restock.Complete(ctx, o.ID, CompletePatch{IsDelivered: true, Status: domain.OrderStatusPending})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.restock.Complete(ctx, o.ID, CompletePatch{IsDelivered: false, Status: domain.OrderStatusCompleted})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.restock.Complete(ctx, o.ID, CompletePatch{ID: "other", IsDelivered: true, Status: domain.OrderStatusCompleted})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.restock.Complete(ctx, "missing", CompletePatch{IsDelivered: true, Status: domain.OrderStatusCompleted})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	still, _ := f.restock.GetByID(ctx, o.ID)
	assert.Equal(t, domain.OrderStatusPending, still.Status)
	assert.False(t, still.IsDelivered)
}

func TestRestockService_PublishFailureDoesNotFailCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	med := f.register(t, "Metformin", 2, 10)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	o, err := f.restock.Create(ctx, CreateRestockInput{MedicationID: med.ID, Quantity: 5, NextBatch: "B2"})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsPublishedTotal.WithLabelValues(events.TypeRestockOrderCreated, "error")))
}
