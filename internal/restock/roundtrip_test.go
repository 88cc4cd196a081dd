package restock_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medrestock/internal/config"
	"medrestock/internal/domain"
	"medrestock/internal/events"
	httpapi "medrestock/internal/http"
	"medrestock/internal/inventory"
	"medrestock/internal/repository"
	"medrestock/internal/restock"
	"medrestock/internal/service"
	"medrestock/pkg/metrics"
)

// TestRoundTrip drives the workflow against a real inventory service: a
// submitted order moves its medication from needs-restock to processing, and
// confirming delivery moves the order to completed and restocks the shelf.
func TestRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	orders := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	serverMetrics := metrics.NewCollector("inventory", prometheus.NewRegistry())
	meds := service.NewMedicationService(store, tx, log)
	restockSvc := service.NewRestockService(orders, store, tx, events.NewLogPublisher(log), serverMetrics, log)
	srv := httptest.NewServer(httpapi.NewServer(meds, restockSvc, serverMetrics, log).Engine())
	defer srv.Close()

	for _, m := range []domain.Medication{
		{Name: "Metformin", Quantity: 0, ReorderPoint: 10, Category: domain.CategoryDiabetes, Batch: "B1"},
		{Name: "Warfarin", Quantity: 4, ReorderPoint: 10, Category: domain.CategoryCardiovascular, Batch: "W1"},
		{Name: "Atorvastatin", Quantity: 80, ReorderPoint: 10, Category: domain.CategoryCardiovascular, Batch: "A1"},
	} {
		_, err := meds.Create(ctx, m)
		require.NoError(t, err)
	}

	client := inventory.New(
		config.InventoryConfig{BaseURL: srv.URL + "/api/v1", Timeout: 2 * time.Second},
		config.BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, ConsecutiveFailures: 5},
		log,
	)
	w := restock.NewWorkflow(client, config.PollConfig{
		Interval:         time.Hour,
		FocusMinInterval: time.Second,
		CycleTimeout:     5 * time.Second,
	}, metrics.NewCollector("console", prometheus.NewRegistry()), log)

	w.Activate(ctx)
	defer w.Deactivate()
	require.Eventually(t, func() bool { return len(w.NeedsRestock()) == 2 }, 2*time.Second, 5*time.Millisecond)

	metformin := w.NeedsRestock()[0]
	assert.Equal(t, "Metformin", metformin.Name)
	assert.Equal(t, domain.StockNearRestock, metformin.Status)
	assert.Equal(t, domain.StockLowStock, w.NeedsRestock()[1].Status)

	out := w.SubmitRestock(ctx, restock.RestockInput{
		Medication: metformin.Medication,
		Quantity:   "50",
		NextBatch:  "B2",
	})
	require.True(t, out.OK, out.Message)

	needs := w.NeedsRestock()
	require.Len(t, needs, 1)
	assert.Equal(t, "Warfarin", needs[0].Name)
	processing := w.Processing()
	require.Len(t, processing, 1)
	assert.Equal(t, metformin.ID, processing[0].MedicationID)
	assert.Equal(t, processing[0].OrderDate.AddDays(domain.DefaultDeliveryLead), processing[0].ExpectedDeliveryDate)

	// a second submission for the same medication is rejected by the service
	dup := w.SubmitRestock(ctx, restock.RestockInput{Medication: metformin.Medication, Quantity: "5", NextBatch: "B3"})
	assert.False(t, dup.OK)
	var rej *inventory.RemoteRejection
	assert.ErrorAs(t, dup.Err, &rej)

	orderID := processing[0].ID
	out = w.ConfirmDelivery(ctx, orderID)
	require.True(t, out.OK, out.Message)

	assert.Empty(t, w.Processing())
	completed := w.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, orderID, completed[0].ID)
	assert.True(t, completed[0].IsDelivered)
	for _, m := range w.NeedsRestock() {
		assert.NotEqual(t, metformin.ID, m.ID, "restocked medication is no longer low")
	}

	after, err := meds.GetByID(ctx, metformin.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, after.Quantity)
	assert.Equal(t, "B2", after.Batch)

	// confirming again is a success and does not restock twice
	require.True(t, w.ConfirmDelivery(ctx, orderID).OK)
	after, _ = meds.GetByID(ctx, metformin.ID)
	assert.Equal(t, 50, after.Quantity)
}
