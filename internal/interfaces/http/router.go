package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/mes/backend/internal/interfaces/http/handler"
	"github.com/mes/backend/internal/interfaces/http/middleware"
)

// Handlers groups the route registrars for the API surface
type Handlers struct {
	Stock      *handler.StockHandler
	Document   *handler.DocumentHandler
	CycleCount *handler.CycleCountHandler
	WorkOrder  *handler.WorkOrderHandler
	Labor      *handler.LaborHandler
}

// NewRouter builds the gin engine with middleware and all API routes
func NewRouter(h Handlers, serviceName string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestID())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Identity())

	h.Stock.Register(api)
	h.Document.Register(api)
	h.CycleCount.Register(api)
	h.WorkOrder.Register(api)
	h.Labor.Register(api)

	logger.Info("router initialized")
	return r
}
