package api

import (
	"github.com/Conceptual-Machines/lyrics-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/lyrics-api/internal/api/middleware"
	"github.com/Conceptual-Machines/lyrics-api/internal/config"
	"github.com/Conceptual-Machines/lyrics-api/internal/metrics"
	"github.com/Conceptual-Machines/lyrics-api/internal/observability"
	"github.com/Conceptual-Machines/lyrics-api/internal/prompt"
	"github.com/Conceptual-Machines/lyrics-api/internal/relay"
	"github.com/gin-gonic/gin"
)

// Dependencies are built once in main and shared by all requests
type Dependencies struct {
	Config        *config.Config
	Composer      *prompt.Composer
	Relay         *relay.Relay
	Tracer        *observability.LangfuseClient // optional
	SentryMetrics *metrics.SentryMetrics        // optional
	CloudWatch    *metrics.Client               // optional
}

func SetupRouter(deps Dependencies, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.SentryMetrics, deps.CloudWatch))

	// CORS middleware
	router.Use(apimiddleware.CORS(deps.Config.AllowedOrigins, deps.Config.AllowsAllOrigins()))

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, handlers.UpstreamInfo{
		Provider:    deps.Config.LLMProvider,
		Model:       deps.Config.LLMModel,
		MaxVersions: deps.Config.MaxVersions,
		Timeout:     deps.Config.UpstreamTimeout.String(),
	})
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Lyrics generation (streamed plain text)
	lyricsHandler := handlers.NewLyricsHandler(deps.Composer, deps.Relay, deps.Config.MaxVersions, deps.Tracer)
	router.POST("/api/generate_lyrics", lyricsHandler.GenerateLyrics)

	return router
}
