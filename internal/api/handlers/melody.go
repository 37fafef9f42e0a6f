package handlers

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Conceptual-Machines/melodia-api/internal/config"
	"github.com/Conceptual-Machines/melodia-api/internal/llm"
	"github.com/Conceptual-Machines/melodia-api/internal/lyrics"
	"github.com/Conceptual-Machines/melodia-api/internal/melody"
	"github.com/Conceptual-Machines/melodia-api/internal/metrics"
	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/notation"
	"github.com/Conceptual-Machines/melodia-api/internal/observability"
	"github.com/Conceptual-Machines/melodia-api/internal/oracle"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Global metrics instance shared by melody endpoints
var generationMetrics = metrics.NewSentryMetrics()

// MelodyHandler serves the lyrics-to-melody endpoints. Each request gets its
// own pipeline so the model and provider can be overridden per call.
type MelodyHandler struct {
	cfg     *config.Config
	tuning  *config.Tuning
	factory *llm.ProviderFactory
	cw      *metrics.Client
	counter *MetricsHandler
}

func NewMelodyHandler(cfg *config.Config, tuning *config.Tuning, cw *metrics.Client, counter *MetricsHandler) *MelodyHandler {
	return &MelodyHandler{
		cfg:     cfg,
		tuning:  tuning,
		factory: llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey),
		cw:      cw,
		counter: counter,
	}
}

type GenerateMelodyRequest struct {
	Lyrics string `json:"lyrics" binding:"required"`
	// Model to use (e.g., gpt-5-mini, gemini-2.5-flash); defaults to the
	// configured model
	Model string `json:"model"`
	// Optional: provider override (openai, gemini) - defaults to provider based on model
	Provider string `json:"provider"`
}

var allowedModels = map[string]bool{
	// OpenAI GPT-5 models
	"gpt-5":      true,
	"gpt-5-mini": true,
	"gpt-5-nano": true,
	// Google Gemini 2.5 models
	"gemini-2.5-flash": true,
	"gemini-2.5-pro":   true,
}

// Generate runs the full lyrics-to-melody pipeline and returns the melody
// with per-stage diagnostics.
func (h *MelodyHandler) Generate(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	pipe, model, ok := h.buildPipeline(c, req)
	if !ok {
		return
	}

	trace := observability.GetClient().StartTrace(c.Request.Context(), "melody.generate", map[string]interface{}{
		"model":         model,
		"lyrics_length": len(req.Lyrics),
	})
	defer trace.Finish()

	result, err := pipe.Generate(c.Request.Context(), req.Lyrics)
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}

	h.recordResult(c.Request.Context(), trace, result)

	c.JSON(http.StatusOK, gin.H{
		"melody":      result.Melody,
		"profile":     result.Profile,
		"attempts":    result.Attempts,
		"duration_ms": result.Duration.Milliseconds(),
		"request_id":  c.GetString("request_id"),
	})
}

// Analyze resolves the emotion profile only, without synthesizing notes.
func (h *MelodyHandler) Analyze(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	pipe, _, ok := h.buildPipeline(c, req)
	if !ok {
		return
	}

	profile, attempt, err := pipe.Analyze(c.Request.Context(), req.Lyrics)
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":    profile,
		"attempt":    attempt,
		"request_id": c.GetString("request_id"),
	})
}

// ExportMIDI runs the pipeline and streams the result as a Standard MIDI
// File instead of JSON.
func (h *MelodyHandler) ExportMIDI(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	pipe, model, ok := h.buildPipeline(c, req)
	if !ok {
		return
	}

	trace := observability.GetClient().StartTrace(c.Request.Context(), "melody.export_midi", map[string]interface{}{
		"model":         model,
		"lyrics_length": len(req.Lyrics),
	})
	defer trace.Finish()

	result, err := pipe.Generate(c.Request.Context(), req.Lyrics)
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := notation.ExportMIDI(result.Melody, result.Profile.Phrases, &buf); err != nil {
		sentry.CaptureException(err)
		log.Printf("⚠️  MIDI export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "MIDI export failed",
			"request_id": c.GetString("request_id"),
		})
		return
	}

	h.recordResult(c.Request.Context(), trace, result)

	c.Header("Content-Disposition", `attachment; filename="melody.mid"`)
	c.Data(http.StatusOK, "audio/midi", buf.Bytes())
}

func (h *MelodyHandler) bindRequest(c *gin.Context) (GenerateMelodyRequest, bool) {
	var req GenerateMelodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}

	if req.Model != "" && !allowedModels[req.Model] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model. Allowed: gpt-5, gpt-5-mini, gpt-5-nano, gemini-2.5-flash, gemini-2.5-pro",
		})
		return req, false
	}

	return req, true
}

// buildPipeline assembles a pipeline for this request. Without any LLM key
// the pipeline runs in deterministic fallback-only mode.
func (h *MelodyHandler) buildPipeline(c *gin.Context, req GenerateMelodyRequest) (*melody.Pipeline, string, bool) {
	model := req.Model
	if model == "" {
		model = h.cfg.Model
	}

	var adapter *oracle.Adapter
	if h.cfg.HasOracle() {
		provider, err := h.factory.GetProvider(c.Request.Context(), model, req.Provider)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, model, false
		}
		adapter = oracle.New(provider, oracle.Config{
			MaxRetries:     h.tuning.Oracle.MaxRetries,
			InitialDelay:   h.tuning.Oracle.InitialDelay(),
			BackoffFactor:  h.tuning.Oracle.BackoffFactor,
			AttemptTimeout: h.tuning.Oracle.Timeout(),
		})
	}

	table, err := h.tuning.EmotionTable()
	if err != nil {
		// Tuning was validated at startup; a failure here is a defect.
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid emotion table configuration"})
		return nil, model, false
	}

	pipe, err := melody.NewPipeline(adapter, table, melody.Options{
		Model:            model,
		MaxNotesPerChunk: h.tuning.MaxNotesPerChunk,
	})
	if err != nil {
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, model, false
	}

	return pipe, model, true
}

// recordResult publishes generation metrics and Langfuse observations.
func (h *MelodyHandler) recordResult(ctx context.Context, trace *observability.Trace, result *melody.Result) {
	fallbackChunks := 0
	chunks := 0
	for _, attempt := range result.Attempts {
		if attempt.Stage != melody.StageName {
			continue
		}
		chunks++
		if attempt.Source == models.SourceFallback {
			fallbackChunks++
		}
	}

	emotion := result.Profile.Emotion
	notes := result.Melody.NoteCount()

	generationMetrics.RecordGeneration(ctx, emotion, notes, chunks, fallbackChunks, result.Duration)
	h.cw.RecordGeneration(emotion, notes, fallbackChunks, result.Duration)
	h.counter.CountGeneration(notes, fallbackChunks)

	for _, attempt := range result.Attempts {
		gen := trace.Generation(attempt.Stage, map[string]interface{}{
			"chunk_index": attempt.ChunkIndex,
			"source":      attempt.Source,
			"attempts":    attempt.Attempts,
		})
		if attempt.LastError != "" {
			gen.SetLevel("WARNING")
			gen.Output(attempt.LastError)
		}
		gen.Finish()
	}
	trace.SetMetadata(map[string]interface{}{
		"emotion":         emotion,
		"notes":           notes,
		"fallback_chunks": fallbackChunks,
		"duration_ms":     result.Duration.Milliseconds(),
	})
}

// renderPipelineError maps pipeline failures to HTTP responses.
func (h *MelodyHandler) renderPipelineError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	var violation *melody.InvariantViolation
	switch {
	case errors.Is(err, lyrics.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "request_id": requestID})
	case errors.As(err, &violation):
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; nothing useful to send but gin wants a status.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled", "request_id": requestID})
	default:
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
	}
}
