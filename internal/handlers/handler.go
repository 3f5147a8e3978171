package handlers

import (
	"net/http"

	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler. metrics may be nil, in which case /metrics is not served.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Status stream over the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/status", h.getStatus)
		h.registerCommandRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerCommandRoutes(api *gin.RouterGroup) {
	buf := api.Group("/buffer")
	{
		buf.POST("/ack-overflow", h.ackOverflow)
		buf.POST("/clear", h.clearBuffer)
	}
	api.POST("/alerts/reset", h.resetAlerts)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
