package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/lyrics-api/internal/api"
	"github.com/Conceptual-Machines/lyrics-api/internal/config"
	"github.com/Conceptual-Machines/lyrics-api/internal/llm"
	"github.com/Conceptual-Machines/lyrics-api/internal/metrics"
	"github.com/Conceptual-Machines/lyrics-api/internal/observability"
	"github.com/Conceptual-Machines/lyrics-api/internal/prompt"
	"github.com/Conceptual-Machines/lyrics-api/internal/relay"
	"github.com/Conceptual-Machines/lyrics-api/internal/services"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout = 2 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load and validate configuration; a missing credential is fatal here
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "lyrics-api@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()

	tracer := observability.InitializeLangfuse(ctx, cfg)

	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}
	sentryMetrics := metrics.NewSentryMetrics()

	// The provider client is created once and shared read-only by all requests
	provider, err := llm.NewProviderFactory(cfg.GroqAPIKey, cfg.OpenAIAPIKey, cfg.GeminiAPIKey, cfg.LLMBaseURL).
		GetProvider(ctx, cfg.LLMProvider)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to create LLM provider: ", err)
	}

	composer, err := prompt.NewComposer()
	if err != nil {
		log.Fatal("Failed to load prompt templates: ", err)
	}

	lyricsRelay, err := relay.New(relay.Config{
		Provider:       provider,
		Params:         services.ParamsForModel(cfg.LLMModel),
		SystemPrompt:   composer.SystemInstruction(),
		VersionTimeout: cfg.UpstreamTimeout,
		Observers:      []relay.Observer{sentryMetrics, cloudwatch},
	})
	if err != nil {
		log.Fatal("Failed to create relay: ", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Dependencies{
		Config:        cfg,
		Composer:      composer,
		Relay:         lyricsRelay,
		Tracer:        tracer,
		SentryMetrics: sentryMetrics,
		CloudWatch:    cloudwatch,
	}, GetVersion())

	log.Printf("🚀 Starting server on port %s (provider: %s, model: %s)", cfg.Port, provider.Name(), cfg.LLMModel)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
