package config

import "os"

// Config holds the application configuration
// Note: This is a stateless service - no database needed; melodies are
// generated per request and returned to the caller.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Generation defaults
	Model string // default oracle model

	// Tuning file (optional) overriding the emotion table and pipeline knobs
	TuningFile string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// CloudWatch metrics
	MetricsEnabled bool
	AWSRegion      string
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		Model:             getEnv("MELODY_MODEL", "gpt-5-mini"),
		TuningFile:        getEnv("MELODIA_TUNING_FILE", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		MetricsEnabled:    getEnv("METRICS_ENABLED", "false") == "true",
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// HasOracle reports whether any LLM API key is configured; without one the
// pipeline runs in deterministic fallback-only mode.
func (c *Config) HasOracle() bool {
	return c.OpenAIAPIKey != "" || c.GeminiAPIKey != ""
}
