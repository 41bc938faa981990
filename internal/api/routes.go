package api

import (
	"github.com/RishiKendai/veritas/internal/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, reviewSvc ReviewService) *gin.Engine {
	router := gin.Default()

	handler := NewHandler(cfg, reviewSvc)

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	router.Use(MetricsMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		similarity := api.Group("/similarity")
		similarity.POST("/peers", handler.ComparePeers)
		similarity.POST("/risk", handler.AssessRisk)
		similarity.POST("/check", handler.Check)

		assignments := api.Group("/assignments")
		assignments.POST("/submissions/:id/check", handler.CheckAssignment)
		assignments.POST("/:id/preview", handler.PreviewAssignment)
		assignments.GET("/:id/report", handler.AssignmentReport)

		api.POST("/abstracts/:id/check", handler.CheckAbstract)

		events := api.Group("/events")
		events.POST("/:id/batch", handler.StartBatch)
		events.GET("/:id/batch/status", handler.BatchStatus)
	}

	return router
}
