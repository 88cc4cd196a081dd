package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medrestock/internal/domain"
	"medrestock/internal/inventory"
	"medrestock/internal/restock"
	"medrestock/pkg/logger"
	"medrestock/pkg/metrics"
)

// Workflow is what the console needs from the restock core.
type Workflow interface {
	Display() restock.Display
	NeedsRestock() []restock.MedicationView
	Processing() []restock.OrderView
	Completed() []restock.OrderView
	SubmitRestock(ctx context.Context, in restock.RestockInput) restock.Outcome
	ConfirmDelivery(ctx context.Context, orderID string) restock.Outcome
	Refresh(ctx context.Context) restock.Outcome
	Focus(ctx context.Context) restock.Outcome
	SetCategoryFilter(category string) restock.Outcome
	SetView(view string) restock.Outcome
	Active() bool
}

// Console serves the restock board to the presentation layer.
type Console struct {
	engine   *gin.Engine
	workflow Workflow
}

func NewConsole(workflow Workflow, m *metrics.Collector, log *zap.Logger) *Console {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log), m.GinMiddleware())
	c := &Console{engine: r, workflow: workflow}

	r.GET("/healthz", c.health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	board := r.Group("/api/v1/restock")
	{
		board.GET("/board", c.board)
		board.GET("/needs-restock", c.needsRestock)
		board.GET("/processing", c.processing)
		board.GET("/completed", c.completed)
		board.POST("/orders", c.submitRestock)
		board.POST("/orders/:id/deliver", c.confirmDelivery)
		board.POST("/refresh", c.refresh)
		board.POST("/focus", c.focus)
		board.PUT("/filter", c.setFilter)
		board.PUT("/view", c.setView)
	}
	return c
}

func (c *Console) Engine() *gin.Engine { return c.engine }

func (c *Console) health(ctx *gin.Context) {
	status := http.StatusOK
	if !c.workflow.Active() {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, gin.H{"active": c.workflow.Active()})
}

func (c *Console) board(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.workflow.Display())
}

func (c *Console) needsRestock(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.workflow.NeedsRestock())
}

func (c *Console) processing(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.workflow.Processing())
}

func (c *Console) completed(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.workflow.Completed())
}

// formValue accepts a JSON string or a bare literal and keeps the raw text,
// so the core sees exactly what the user typed.
type formValue string

func (f *formValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = formValue(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	*f = formValue(b)
	return nil
}

type submitRestockReq struct {
	MedicationID         string      `json:"medication_id"`
	Quantity             formValue   `json:"quantity"`
	NextBatch            string      `json:"next_batch"`
	ExpectedDeliveryDate domain.Date `json:"expected_delivery_date"`
}

func (c *Console) submitRestock(ctx *gin.Context) {
	var req submitRestockReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, restock.Outcome{Message: "invalid json"})
		return
	}
	out := c.workflow.SubmitRestock(ctx.Request.Context(), restock.RestockInput{
		Medication:           domain.Medication{ID: req.MedicationID},
		Quantity:             string(req.Quantity),
		NextBatch:            req.NextBatch,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
	})
	respond(ctx, http.StatusCreated, out)
}

func (c *Console) confirmDelivery(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.workflow.ConfirmDelivery(ctx.Request.Context(), ctx.Param("id")))
}

func (c *Console) refresh(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.workflow.Refresh(ctx.Request.Context()))
}

func (c *Console) focus(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.workflow.Focus(ctx.Request.Context()))
}

type setFilterReq struct {
	Category string `json:"category"`
}

func (c *Console) setFilter(ctx *gin.Context) {
	var req setFilterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, restock.Outcome{Message: "invalid json"})
		return
	}
	respond(ctx, http.StatusOK, c.workflow.SetCategoryFilter(req.Category))
}

type setViewReq struct {
	View string `json:"view"`
}

func (c *Console) setView(ctx *gin.Context) {
	var req setViewReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, restock.Outcome{Message: "invalid json"})
		return
	}
	respond(ctx, http.StatusOK, c.workflow.SetView(req.View))
}

func respond(ctx *gin.Context, okStatus int, out restock.Outcome) {
	if out.OK {
		ctx.JSON(okStatus, out)
		return
	}
	status := outcomeStatus(out.Err)
	if status >= http.StatusInternalServerError {
		_ = ctx.Error(out.Err)
	}
	ctx.JSON(status, out)
}

func outcomeStatus(err error) int {
	var (
		valErr *restock.ValidationError
		rej    *inventory.RemoteRejection
	)
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &rej):
		return http.StatusUnprocessableEntity
	case errors.Is(err, restock.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
