package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/mes/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides shared helpers for request handlers
type BaseHandler struct {
	logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) tenantID(c *gin.Context) uuid.UUID {
	return middleware.TenantID(c)
}

func (h *BaseHandler) userID(c *gin.Context) uuid.UUID {
	return middleware.UserID(c)
}

// pathID parses a UUID path parameter, writing a 400 response on failure
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error(shared.CodeValidationFailed, "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// filter builds a listing filter from query parameters
func (h *BaseHandler) filter(c *gin.Context) shared.Filter {
	f := shared.DefaultFilter()
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		f.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 200 {
		f.PageSize = v
	}
	if v := c.Query("order_by"); v != "" {
		f.OrderBy = v
	}
	if v := c.Query("order_dir"); v != "" {
		f.OrderDir = v
	}
	if v := c.Query("status"); v != "" {
		f.Filters["status"] = v
	}
	if v := c.Query("type"); v != "" {
		f.Filters["type"] = v
	}
	return f
}

// respondError maps domain error codes to HTTP statuses
func (h *BaseHandler) respondError(c *gin.Context, err error) {
	status := dto.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, dto.Error("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(status, dto.Error(dto.CodeFor(err), err.Error()))
}

func (h *BaseHandler) respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.OK(data))
}
