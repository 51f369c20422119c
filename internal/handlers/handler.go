package handlers

import (
	"supply_sandbox/internal/logger"
	"supply_sandbox/internal/service"

	"github.com/gin-gonic/gin"

	_ "supply_sandbox/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler serves the configurator API on top of the service aggregate.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler returns a Handler. log may be nil, which disables access logs.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes registers public, token-protected and streaming routes.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Browsers cannot set headers on a WebSocket handshake, so the stream
	// also accepts ?token=.
	router.GET("/ws/sessions/:id", h.wsUserIdMiddleware, h.wsSessionStream)

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
		api.GET("/catalog", h.getCatalog)
		h.registerSessionRoutes(api)
		api.GET("/events", h.getEvents)
		h.registerRunRoutes(api)
	}
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.openSession)
		sessions.GET("", h.listSessions)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.closeSession)
		// Body example: {"type":"SET_PARAMETER","key":"changePercent","number":25}
		sessions.POST("/:id/events", h.dispatchEvent)
	}
}

func (h *Handler) registerRunRoutes(api *gin.RouterGroup) {
	runs := api.Group("/runs")
	{
		runs.GET("", h.listRuns)
		runs.GET("/:id", h.getRun)
	}
}
