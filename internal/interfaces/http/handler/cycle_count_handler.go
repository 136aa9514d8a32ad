package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// CycleCountHandler serves cycle count endpoints
type CycleCountHandler struct {
	BaseHandler
	counts  *appstock.CycleCountService
	posting *appstock.PostingService
}

func NewCycleCountHandler(counts *appstock.CycleCountService, posting *appstock.PostingService, logger *zap.Logger) *CycleCountHandler {
	return &CycleCountHandler{
		BaseHandler: NewBaseHandler(logger),
		counts:      counts,
		posting:     posting,
	}
}

func (h *CycleCountHandler) Register(r *gin.RouterGroup) {
	r.POST("/cycle-counts", h.Schedule)
	r.GET("/cycle-counts", h.List)
	r.GET("/cycle-counts/:countId", h.Get)
	r.POST("/cycle-counts/:countId/start", h.Start)
	r.POST("/cycle-counts/:countId/lines", h.RecordLine)
	r.POST("/cycle-counts/:countId/complete", h.Complete)
	r.POST("/cycle-counts/:countId/post", h.Post)
	r.POST("/cycle-counts/:countId/cancel", h.Cancel)
}

func (h *CycleCountHandler) Schedule(c *gin.Context) {
	var req appstock.ScheduleCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	count, err := h.counts.ScheduleCount(c.Request.Context(), h.tenantID(c), h.userID(c),
		req.CountNumber, req.LocationID, req.ScheduledAt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, count)
}

func (h *CycleCountHandler) List(c *gin.Context) {
	result, err := h.counts.ListCounts(c.Request.Context(), h.tenantID(c), h.filter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, result)
}

func (h *CycleCountHandler) Get(c *gin.Context) {
	countID, ok := h.pathID(c, "countId")
	if !ok {
		return
	}
	count, err := h.counts.GetCount(c.Request.Context(), h.tenantID(c), countID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, count)
}

// Start snapshots the current balances at the counted location
func (h *CycleCountHandler) Start(c *gin.Context) {
	countID, ok := h.pathID(c, "countId")
	if !ok {
		return
	}
	count, err := h.counts.StartCount(c.Request.Context(), h.tenantID(c), countID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, count)
}

func (h *CycleCountHandler) RecordLine(c *gin.Context) {
	countID, ok := h.pathID(c, "countId")
	if !ok {
		return
	}
	var req appstock.RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	count, err := h.counts.RecordCount(c.Request.Context(), h.tenantID(c), countID, req.LineID, req.CountedQty)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, count)
}

func (h *CycleCountHandler) Complete(c *gin.Context) {
	countID, ok := h.pathID(c, "countId")
	if !ok {
		return
	}
	count, err := h.counts.CompleteCount(c.Request.Context(), h.tenantID(c), countID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, count)
}

// Post writes variance adjustments to the stock ledger
func (h *CycleCountHandler) Post(c *gin.Context) {
	countID, ok := h.pathID(c, "countId")
	if !ok {
		return
	}
	tenantID := h.tenantID(c)
	key := appstock.DocumentIdempotencyKey(tenantID, c.GetHeader(HeaderIdempotencyKey))
	count, err := h.posting.PostCycleCount(c.Request.Context(), tenantID, countID, h.userID(c), key)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, count)
}

func (h *CycleCountHandler) Cancel(c *gin.Context) {
	countID, ok := h.pathID(c, "countId")
	if !ok {
		return
	}
	count, err := h.counts.CancelCount(c.Request.Context(), h.tenantID(c), countID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, count)
}
