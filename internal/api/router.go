package api

import (
	"github.com/Conceptual-Machines/melodia-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/melodia-api/internal/api/middleware"
	"github.com/Conceptual-Machines/melodia-api/internal/config"
	"github.com/Conceptual-Machines/melodia-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, tuning *config.Tuning, cw *metrics.Client, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(cw))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(cfg)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// API routes v1
	v1 := router.Group("/api/v1")
	{
		// Melody endpoints - lyrics-to-melody pipeline
		melodyHandler := handlers.NewMelodyHandler(cfg, tuning, cw, metricsHandler)
		v1.POST("/melody/generations", melodyHandler.Generate)
		v1.POST("/melody/analyses", melodyHandler.Analyze)
		v1.POST("/melody/exports/midi", melodyHandler.ExportMIDI)
	}

	return router
}
