package main

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/melodia-api/internal/api"
	"github.com/Conceptual-Machines/melodia-api/internal/config"
	"github.com/Conceptual-Machines/melodia-api/internal/llm"
	"github.com/Conceptual-Machines/melodia-api/internal/metrics"
	"github.com/Conceptual-Machines/melodia-api/internal/observability"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
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

	// Load configuration
	cfg := config.Load()

	// Load tuning (emotion table and pipeline knobs); fail fast on a bad file
	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		log.Fatal("Failed to load tuning: ", err)
	}
	if _, err := tuning.EmotionTable(); err != nil {
		log.Fatal("Invalid emotion table configuration: ", err)
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "melodia-api@" + releaseVersion,          // Use embedded release version
			EnableTracing:    true,                                     // Enable tracing for spans
			TracesSampleRate: 1.0,                                      // 100% sampling for now, adjust based on volume
			EnableLogs:       true,                                     // Enable Sentry Logs feature
			Debug:            cfg.Environment != environmentProduction, // Enable debug in non-prod
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

	// Initialize Langfuse tracing
	observability.InitializeLangfuse(ctx, cfg)

	// Initialize CloudWatch metrics
	cw, err := metrics.NewClient(ctx, cfg.Environment, cfg.AWSRegion, cfg.MetricsEnabled)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}
	llm.SetMetricsClient(cw)

	if cfg.HasOracle() {
		log.Printf("🔮 Oracle enabled (default model: %s)", cfg.Model)
	} else {
		log.Println("⚠️  No LLM API key configured - running in deterministic fallback mode")
	}

	// Set Gin mode
	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(cfg, tuning, cw, GetVersion())

	// Start server
	log.Printf("🚀 Starting server on port %s", cfg.Port)
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
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
