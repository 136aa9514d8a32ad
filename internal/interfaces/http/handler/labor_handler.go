package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appworkorder "github.com/mes/backend/internal/application/workorder"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// LaborHandler serves labor time tracking endpoints. The operator is the
// authenticated user; one open entry per operator is enforced.
type LaborHandler struct {
	BaseHandler
	labor *appworkorder.LaborService
}

func NewLaborHandler(labor *appworkorder.LaborService, logger *zap.Logger) *LaborHandler {
	return &LaborHandler{BaseHandler: NewBaseHandler(logger), labor: labor}
}

func (h *LaborHandler) Register(r *gin.RouterGroup) {
	r.POST("/labor/clock-in", h.ClockIn)
	r.POST("/labor/clock-out", h.ClockOut)
	r.GET("/work-orders/:orderId/labor", h.ListByWorkOrder)
}

func (h *LaborHandler) ClockIn(c *gin.Context) {
	var req appworkorder.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	entry, err := h.labor.ClockIn(c.Request.Context(), h.tenantID(c), req.WorkOrderID, req.OperationID, h.userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, entry)
}

func (h *LaborHandler) ClockOut(c *gin.Context) {
	entry, err := h.labor.ClockOut(c.Request.Context(), h.tenantID(c), h.userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, entry)
}

func (h *LaborHandler) ListByWorkOrder(c *gin.Context) {
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	entries, err := h.labor.ListByWorkOrder(c.Request.Context(), h.tenantID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, entries)
}
