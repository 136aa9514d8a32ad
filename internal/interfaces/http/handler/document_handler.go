package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// HeaderIdempotencyKey deduplicates posting requests on retry
const HeaderIdempotencyKey = "Idempotency-Key"

// DocumentHandler serves movement document endpoints
type DocumentHandler struct {
	BaseHandler
	documents *appstock.DocumentService
	posting   *appstock.PostingService
}

func NewDocumentHandler(documents *appstock.DocumentService, posting *appstock.PostingService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: NewBaseHandler(logger),
		documents:   documents,
		posting:     posting,
	}
}

func (h *DocumentHandler) Register(r *gin.RouterGroup) {
	r.POST("/documents", h.Create)
	r.GET("/documents", h.List)
	r.GET("/documents/:documentId", h.Get)
	r.POST("/documents/:documentId/lines", h.AddLine)
	r.DELETE("/documents/:documentId/lines/:lineId", h.RemoveLine)
	r.POST("/documents/:documentId/post", h.Post)
	r.POST("/documents/:documentId/cancel", h.Cancel)
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req appstock.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	doc, err := h.documents.CreateDocument(c.Request.Context(), h.tenantID(c), h.userID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	result, err := h.documents.ListDocuments(c.Request.Context(), h.tenantID(c), h.filter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, result)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	documentID, ok := h.pathID(c, "documentId")
	if !ok {
		return
	}
	doc, err := h.documents.GetDocument(c.Request.Context(), h.tenantID(c), documentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, doc)
}

func (h *DocumentHandler) AddLine(c *gin.Context) {
	documentID, ok := h.pathID(c, "documentId")
	if !ok {
		return
	}
	var req appstock.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
		return
	}
	doc, err := h.documents.AddLine(c.Request.Context(), h.tenantID(c), documentID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, doc)
}

func (h *DocumentHandler) RemoveLine(c *gin.Context) {
	documentID, ok := h.pathID(c, "documentId")
	if !ok {
		return
	}
	lineID, ok := h.pathID(c, "lineId")
	if !ok {
		return
	}
	doc, err := h.documents.RemoveLine(c.Request.Context(), h.tenantID(c), documentID, lineID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, doc)
}

// Post applies the document to the stock ledger. An Idempotency-Key
// header makes retries safe across connection failures; the optional body
// carries an availability override for issues and transfers.
func (h *DocumentHandler) Post(c *gin.Context) {
	documentID, ok := h.pathID(c, "documentId")
	if !ok {
		return
	}
	var req appstock.PostDocumentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, err.Error()))
			return
		}
	}
	tenantID := h.tenantID(c)
	key := appstock.DocumentIdempotencyKey(tenantID, c.GetHeader(HeaderIdempotencyKey))
	doc, err := h.posting.PostDocument(c.Request.Context(), tenantID, documentID, h.userID(c), key, req.OverrideAvailability)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, doc)
}

func (h *DocumentHandler) Cancel(c *gin.Context) {
	documentID, ok := h.pathID(c, "documentId")
	if !ok {
		return
	}
	doc, err := h.documents.CancelDocument(c.Request.Context(), h.tenantID(c), documentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, doc)
}
