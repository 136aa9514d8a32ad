package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appworkorder "github.com/mes/backend/internal/application/workorder"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// WorkOrderHandler serves work order lifecycle, material and costing endpoints
type WorkOrderHandler struct {
	BaseHandler
	orders    *appworkorder.WorkOrderService
	materials *appworkorder.MaterialService
}

func NewWorkOrderHandler(orders *appworkorder.WorkOrderService, materials *appworkorder.MaterialService, logger *zap.Logger) *WorkOrderHandler {
	return &WorkOrderHandler{
		BaseHandler: NewBaseHandler(logger),
		orders:      orders,
		materials:   materials,
	}
}

func (h *WorkOrderHandler) Register(r *gin.RouterGroup) {
	r.POST("/work-orders", h.Create)
	r.GET("/work-orders", h.List)
	r.GET("/work-orders/:orderId", h.Get)
	r.GET("/work-orders/:orderId/costing", h.Costing)
	r.POST("/work-orders/:orderId/release", h.Release)
	r.POST("/work-orders/:orderId/complete", h.Complete)
	r.POST("/work-orders/:orderId/cancel", h.Cancel)
	r.POST("/work-orders/:orderId/operations/:operationId/assign", h.AssignOperation)
	r.POST("/work-orders/:orderId/operations/:operationId/start", h.StartOperation)
	r.POST("/work-orders/:orderId/operations/:operationId/complete", h.CompleteOperation)
	r.POST("/work-orders/:orderId/materials/allocate", h.AllocateMaterial)
	r.POST("/work-orders/:orderId/materials/issue", h.IssueMaterial)
	r.POST("/work-orders/:orderId/materials/consume", h.ConsumeMaterial)
	r.POST("/work-orders/:orderId/materials/return", h.ReturnMaterial)
}

func (h *WorkOrderHandler) Create(c *gin.Context) {
	var req appworkorder.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	order, err := h.orders.CreateWorkOrder(c.Request.Context(), h.tenantID(c), h.userID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, order)
}

func (h *WorkOrderHandler) List(c *gin.Context) {
	result, err := h.orders.ListWorkOrders(c.Request.Context(), h.tenantID(c), h.filter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, result)
}

func (h *WorkOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	order, err := h.orders.GetWorkOrder(c.Request.Context(), h.tenantID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) Costing(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	summary, err := h.orders.GetCosting(c.Request.Context(), h.tenantID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, summary)
}

// Release explodes the active bill of material and routing into the order
func (h *WorkOrderHandler) Release(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	order, err := h.orders.ReleaseWorkOrder(c.Request.Context(), h.tenantID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) Complete(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req appworkorder.CompleteWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	order, err := h.orders.CompleteWorkOrder(c.Request.Context(), h.tenantID(c), orderID, h.userID(c), req.FinishedQty, req.ScrappedQty)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	order, err := h.orders.CancelWorkOrder(c.Request.Context(), h.tenantID(c), orderID, h.userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) AssignOperation(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	operationID, ok := h.pathID(c, "operationId")
	if !ok {
		return
	}
	var req appworkorder.AssignOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	order, err := h.orders.AssignOperation(c.Request.Context(), h.tenantID(c), orderID, operationID, req.OperatorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) StartOperation(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	operationID, ok := h.pathID(c, "operationId")
	if !ok {
		return
	}
	var req appworkorder.StartOperationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
			return
		}
	}
	operatorID := h.userID(c)
	if req.OperatorID != nil {
		operatorID = *req.OperatorID
	}
	order, err := h.orders.StartOperation(c.Request.Context(), h.tenantID(c), orderID, operationID, operatorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) CompleteOperation(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	operationID, ok := h.pathID(c, "operationId")
	if !ok {
		return
	}
	order, err := h.orders.CompleteOperation(c.Request.Context(), h.tenantID(c), orderID, operationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) AllocateMaterial(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req appworkorder.MaterialQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	order, err := h.materials.AllocateMaterial(c.Request.Context(), h.tenantID(c), orderID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) IssueMaterial(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req appworkorder.IssueMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	order, err := h.materials.IssueMaterial(c.Request.Context(), h.tenantID(c), orderID, req.ProductID, h.userID(c),
		req.Quantity, req.UnitCost, req.BatchID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) ConsumeMaterial(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req appworkorder.MaterialQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	order, err := h.materials.ConsumeMaterial(c.Request.Context(), h.tenantID(c), orderID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

func (h *WorkOrderHandler) ReturnMaterial(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req appworkorder.MaterialQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	order, err := h.materials.ReturnMaterial(c.Request.Context(), h.tenantID(c), orderID, req.ProductID, h.userID(c), req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}
