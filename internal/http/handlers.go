package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"medrestock/internal/domain"
	"medrestock/internal/repository"
	"medrestock/internal/service"
	"medrestock/pkg/logger"
	"medrestock/pkg/metrics"
)

// Server is the inventory service API.
type Server struct {
	engine      *gin.Engine
	medications *service.MedicationService
	restock     *service.RestockService
}

func NewServer(medications *service.MedicationService, restock *service.RestockService, m *metrics.Collector, log *zap.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log), m.GinMiddleware())
	s := &Server{engine: r, medications: medications, restock: restock}
	s.registerRoutes(m)
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes(m *metrics.Collector) {
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := s.engine.Group("/api/v1")
	{
		meds := v1.Group("/medications")
		meds.POST("", s.createMedication)
		meds.GET("", s.listMedications)
		meds.GET("low-stock", s.lowStockMedications)
		meds.GET(":id", s.getMedication)
		meds.PUT(":id/stock", s.adjustStock)

		orders := v1.Group("/restock-orders")
		orders.POST("", s.createRestockOrder)
		orders.GET("", s.listRestockOrders)
		orders.GET(":id", s.getRestockOrder)
		orders.PATCH(":id", s.updateRestockOrder)
	}
}

// Medication handlers
type createMedicationReq struct {
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	ReorderPoint int    `json:"reorderPoint"`
	Category     string `json:"category"`
	Batch        string `json:"batch"`
}

// @Summary Register medication
// @Tags medications
// @Accept json
// @Produce json
// @Param input body createMedicationReq true "Medication"
// @Success 201 {object} service.Registration
// @Failure 400 {object} errorResponse
// @Router /medications [post]
func (s *Server) createMedication(c *gin.Context) {
	var req createMedicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil || category == domain.CategoryAll {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}
	reg, err := s.medications.Create(c, domain.Medication{
		Name:         req.Name,
		Quantity:     req.Quantity,
		ReorderPoint: req.ReorderPoint,
		Category:     category,
		Batch:        strings.TrimSpace(req.Batch),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// @Summary Get medication by id
// @Tags medications
// @Produce json
// @Param id path string true "Medication ID"
// @Success 200 {object} domain.Medication
// @Failure 404 {object} errorResponse
// @Router /medications/{id} [get]
func (s *Server) getMedication(c *gin.Context) {
	m, err := s.medications.GetByID(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// @Summary List medications
// @Tags medications
// @Produce json
// @Param q query string false "Name contains"
// @Param category query string false "Category or all"
// @Success 200 {array} domain.Medication
// @Failure 400 {object} errorResponse
// @Router /medications [get]
func (s *Server) listMedications(c *gin.Context) {
	f := repository.MedicationFilter{NameSubstring: c.Query("q")}
	if v := c.Query("category"); v != "" {
		category, err := domain.ParseCategory(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.Category = category
	}
	list, err := s.medications.List(c, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List low-stock medications
// @Description Medications at or below their reorder point, empty shelves included.
// @Tags medications
// @Produce json
// @Param category query string false "Category or all"
// @Success 200 {array} domain.Medication
// @Failure 400 {object} errorResponse
// @Router /medications/low-stock [get]
func (s *Server) lowStockMedications(c *gin.Context) {
	category := domain.CategoryAll
	if v := c.Query("category"); v != "" {
		parsed, err := domain.ParseCategory(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		category = parsed
	}
	list, err := s.medications.LowStock(c, category)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type adjustStockReq struct {
	Delta int `json:"delta"`
}

// @Summary Adjust stock on hand
// @Tags medications
// @Accept json
// @Produce json
// @Param id path string true "Medication ID"
// @Param input body adjustStockReq true "Signed quantity delta"
// @Success 200 {object} domain.Medication
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /medications/{id}/stock [put]
func (s *Server) adjustStock(c *gin.Context) {
	var req adjustStockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	m, err := s.medications.AdjustStock(c, c.Param("id"), req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Restock order handlers
type createRestockOrderReq struct {
	MedicationID         string      `json:"medication_id"`
	Quantity             int         `json:"quantity"`
	NextBatch            string      `json:"next_batch"`
	OrderDate            domain.Date `json:"order_date" swaggertype:"string" example:"2026-03-10"`
	ExpectedDeliveryDate domain.Date `json:"expected_delivery_date" swaggertype:"string" example:"2026-03-17"`
}

// @Summary Create restock order
// @Tags restock-orders
// @Accept json
// @Produce json
// @Param input body createRestockOrderReq true "Restock order"
// @Success 201 {object} domain.RestockOrder
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /restock-orders [post]
func (s *Server) createRestockOrder(c *gin.Context) {
	var req createRestockOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.restock.Create(c, service.CreateRestockInput{
		MedicationID:         req.MedicationID,
		Quantity:             req.Quantity,
		NextBatch:            req.NextBatch,
		OrderDate:            req.OrderDate,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary List restock orders
// @Tags restock-orders
// @Produce json
// @Param status query string false "Pending or Completed"
// @Param medication_id query string false "Medication ID"
// @Success 200 {array} domain.RestockOrder
// @Failure 400 {object} errorResponse
// @Router /restock-orders [get]
func (s *Server) listRestockOrders(c *gin.Context) {
	f := repository.RestockOrderFilter{MedicationID: c.Query("medication_id")}
	if v := c.Query("status"); v != "" {
		st := domain.OrderStatus(v)
		if !st.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		f.Status = st
	}
	list, err := s.restock.List(c, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get restock order by id
// @Tags restock-orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.RestockOrder
// @Failure 404 {object} errorResponse
// @Router /restock-orders/{id} [get]
func (s *Server) getRestockOrder(c *gin.Context) {
	o, err := s.restock.GetByID(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type updateRestockOrderReq struct {
	ID          string             `json:"id"`
	IsDelivered bool               `json:"isDelivered"`
	Status      domain.OrderStatus `json:"status"`
}

// @Summary Confirm delivery
// @Description Moves a Pending order to Completed and restocks the medication. Repeating it on a completed order is a no-op.
// @Tags restock-orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body updateRestockOrderReq true "Completion patch"
// @Success 200 {object} domain.RestockOrder
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /restock-orders/{id} [patch]
func (s *Server) updateRestockOrder(c *gin.Context) {
	var req updateRestockOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.restock.Complete(c, c.Param("id"), service.CompletePatch{
		ID:          req.ID,
		IsDelivered: req.IsDelivered,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotEnoughStock):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOrderPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
