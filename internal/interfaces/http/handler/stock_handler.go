package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// StockHandler serves stock level, transaction and batch endpoints
type StockHandler struct {
	BaseHandler
	stocks *appstock.StockService
}

func NewStockHandler(stocks *appstock.StockService, logger *zap.Logger) *StockHandler {
	return &StockHandler{BaseHandler: NewBaseHandler(logger), stocks: stocks}
}

func (h *StockHandler) Register(r *gin.RouterGroup) {
	r.GET("/stock/levels", h.ListLevels)
	r.GET("/stock/levels/lookup", h.GetLevel)
	r.GET("/stock/levels/verify", h.VerifyLevels)
	r.GET("/stock/transactions", h.ListTransactions)
	r.GET("/stock/products/:productId/history", h.ProductHistory)
	r.POST("/stock/batches", h.CreateBatch)
	r.PUT("/stock/batches/:batchId/quality", h.SetBatchQuality)
	r.DELETE("/stock/batches/:batchId", h.DeleteBatch)
	r.GET("/stock/batches/expiring", h.ListExpiringBatches)
}

func (h *StockHandler) ListLevels(c *gin.Context) {
	result, err := h.stocks.ListLevels(c.Request.Context(), h.tenantID(c), h.filter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, result)
}

// GetLevel looks up one balance by product, location and optional batch
func (h *StockHandler) GetLevel(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, "Invalid product_id"))
		return
	}
	locationID, err := uuid.Parse(c.Query("location_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, "Invalid location_id"))
		return
	}
	var batchID *uuid.UUID
	if raw := c.Query("batch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, "Invalid batch_id"))
			return
		}
		batchID = &id
	}
	level, err := h.stocks.GetLevel(c.Request.Context(), h.tenantID(c), productID, locationID, batchID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, level)
}

func (h *StockHandler) VerifyLevels(c *gin.Context) {
	diffs, err := h.stocks.VerifyLevels(c.Request.Context(), h.tenantID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, gin.H{"consistent": len(diffs) == 0, "discrepancies": diffs})
}

func (h *StockHandler) ListTransactions(c *gin.Context) {
	result, err := h.stocks.ListTransactions(c.Request.Context(), h.tenantID(c), h.filter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, result)
}

func (h *StockHandler) ProductHistory(c *gin.Context) {
	productID, ok := h.pathID(c, "productId")
	if !ok {
		return
	}
	result, err := h.stocks.ProductHistory(c.Request.Context(), h.tenantID(c), productID, h.filter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, result)
}

func (h *StockHandler) CreateBatch(c *gin.Context) {
	var req appstock.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	batch, err := h.stocks.CreateBatch(c.Request.Context(), h.tenantID(c), h.userID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, batch)
}

func (h *StockHandler) SetBatchQuality(c *gin.Context) {
	batchID, ok := h.pathID(c, "batchId")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=PENDING RELEASED QUARANTINE REJECTED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	batch, err := h.stocks.SetBatchQuality(c.Request.Context(), h.tenantID(c), batchID, stock.BatchQualityStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, batch)
}

func (h *StockHandler) DeleteBatch(c *gin.Context) {
	batchID, ok := h.pathID(c, "batchId")
	if !ok {
		return
	}
	if err := h.stocks.DeleteBatch(c.Request.Context(), h.tenantID(c), batchID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StockHandler) ListExpiringBatches(c *gin.Context) {
	before := time.Now().AddDate(0, 0, 30)
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, "Invalid before timestamp"))
			return
		}
		before = parsed
	}
	batches, err := h.stocks.ListExpiringBatches(c.Request.Context(), h.tenantID(c), before)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, batches)
}
