package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the v1 endpoints on rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/indexes", h.HandleCreateIndex)
	rg.POST("/indexes/directories", h.HandleAddDirectory)
	rg.DELETE("/indexes/directories", h.HandleRemoveDirectory)
	rg.GET("/search", h.HandleSearch)
	rg.GET("/tasks/:id", h.HandleTaskStatus)
	rg.POST("/tasks/:id/interrupt", h.HandleInterruptTask)
	rg.POST("/shutdown", h.HandleShutdown)
	rg.GET("/health", h.HandleHealth)
}

// NewRouter builds the complete engine: request logging, panic recovery, the v1 API
// and the prometheus /metrics endpoint.
func NewRouter(h *Handlers, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	RegisterRoutes(router.Group("/v1"), h)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// requestLogger logs every request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
