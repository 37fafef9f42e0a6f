package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration records melody generation metrics on the active
// transaction plus a dedicated child span.
func (m *SentryMetrics) RecordGeneration(ctx context.Context, emotion string, notes, chunks, fallbackChunks int, duration time.Duration) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("melody.emotion", emotion)
		transaction.SetTag("melody.fallback_chunks", fmt.Sprintf("%d", fallbackChunks))
		transaction.SetData("melody.notes", notes)
		transaction.SetData("melody.chunks", chunks)
		transaction.SetData("melody.duration_ms", duration.Milliseconds())
	}

	span := sentry.StartSpan(ctx, "melody.metrics")
	defer span.Finish()

	span.SetTag("emotion", emotion)
	span.SetData("notes", notes)
	span.SetData("chunks", chunks)
	span.SetData("fallback_chunks", fallbackChunks)
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Melody Generation: %s", emotion)
}

// RecordOracleTokens records LLM token usage metrics
func (m *SentryMetrics) RecordOracleTokens(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("oracle.model", model)
		transaction.SetData("oracle.total_tokens", totalTokens)
		transaction.SetData("oracle.input_tokens", inputTokens)
		transaction.SetData("oracle.output_tokens", outputTokens)
		transaction.SetData("oracle.reasoning_tokens", reasoningTokens)
	}

	span := sentry.StartSpan(ctx, "oracle.token_usage")
	defer span.Finish()

	span.SetTag("model", model)
	span.SetData("total_tokens", totalTokens)
	span.SetData("input_tokens", inputTokens)
	span.SetData("output_tokens", outputTokens)
	span.SetData("reasoning_tokens", reasoningTokens)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}
