// Package emotion resolves lyrics into an emotion/rhythm profile: the
// emotion label, tempo, time signature and per-phrase syllable counts that
// drive melody generation. The oracle classifies when it can; a keyword
// lexicon takes over when it cannot.
package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Conceptual-Machines/melodia-api/internal/llm"
	"github.com/Conceptual-Machines/melodia-api/internal/lyrics"
	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/oracle"
	"github.com/Conceptual-Machines/melodia-api/internal/prompt"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
	"github.com/getsentry/sentry-go"
)

// StageName identifies this pipeline stage in diagnostics.
const StageName = "emotion"

// Resolver classifies lyrics into an emotion profile.
type Resolver struct {
	adapter *oracle.Adapter // nil runs the lexicon fallback only
	prompts *prompt.Builder
	table   theory.EmotionTable
	model   string
}

// NewResolver creates a resolver. Passing a nil adapter disables the oracle
// path entirely.
func NewResolver(adapter *oracle.Adapter, table theory.EmotionTable, model string) *Resolver {
	return &Resolver{
		adapter: adapter,
		prompts: prompt.NewPromptBuilder(),
		table:   table,
		model:   model,
	}
}

// profilePayload is the oracle's structured answer.
type profilePayload struct {
	Emotion       string `json:"emotion"`
	Tempo         int    `json:"tempo"`
	TimeSignature string `json:"timeSignature"`
	Phrases       []struct {
		Line      string `json:"line"`
		Syllables int    `json:"syllables"`
	} `json:"phrases"`
}

// Resolve turns raw lyrics into an emotion profile. It fails only on invalid
// input or context cancellation; every oracle failure falls back to the
// lexicon so the pipeline always gets a profile.
func (r *Resolver) Resolve(ctx context.Context, rawLyrics string) (*models.EmotionProfile, models.GenerationAttempt, error) {
	span := sentry.StartSpan(ctx, "emotion.resolve")
	defer span.Finish()

	attempt := models.GenerationAttempt{Stage: StageName, ChunkIndex: -1}

	phrases, err := lyrics.Phrases(rawLyrics)
	if err != nil {
		return nil, attempt, err
	}

	if r.adapter == nil {
		return r.fallback(phrases, &attempt), attempt, nil
	}

	payload, oracleAttempts, err := r.askOracle(ctx, phrases)
	attempt.Attempts = oracleAttempts
	if err != nil {
		// Cancellation is the caller's signal to stop, not to degrade.
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}
		log.Printf("⚠️  EMOTION ORACLE FAILED, USING LEXICON: %v", err)
		attempt.LastError = err.Error()
		return r.fallback(phrases, &attempt), attempt, nil
	}

	attempt.Source = models.SourceOracle
	profile := &models.EmotionProfile{
		Emotion:       payload.Emotion,
		Tempo:         payload.Tempo,
		TimeSignature: payload.TimeSignature,
		// Local syllable estimates stay authoritative: the note-count
		// invariant must not depend on the oracle's arithmetic.
		Phrases: phrases,
	}

	if oracleTotal := payloadSyllables(payload); oracleTotal != profile.TotalSyllables() {
		log.Printf("ℹ️  ORACLE SYLLABLE COUNT DIFFERS: oracle=%d local=%d (local wins)",
			oracleTotal, profile.TotalSyllables())
	}

	log.Printf("🎭 EMOTION RESOLVED: %s (tempo=%d, signature=%s, phrases=%d)",
		profile.Emotion, profile.Tempo, profile.TimeSignature, len(profile.Phrases))
	return profile, attempt, nil
}

// askOracle runs the classification call and validates the payload.
func (r *Resolver) askOracle(ctx context.Context, phrases []models.LyricPhrase) (*profilePayload, int, error) {
	lines := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		lines = append(lines, phrase.Text)
	}

	request := &llm.GenerationRequest{
		Model:        r.model,
		SystemPrompt: r.prompts.SystemPrompt(),
		InputArray: []map[string]any{
			{"role": "user", "content": r.prompts.BuildEmotionAnalysis(lines, r.table.Emotions(), r.table.TimeSignatures())},
		},
		OutputSchema: &llm.OutputSchema{
			Name:        "emotion_profile",
			Description: "Emotion and rhythm classification of song lyrics",
			Schema:      llm.GetEmotionProfileSchema(r.table.Emotions(), r.table.TimeSignatures()),
		},
	}

	var payload profilePayload
	result, err := r.adapter.Invoke(ctx, request, func(raw string) error {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return fmt.Errorf("decode emotion profile: %w", err)
		}
		return r.validatePayload(&payload, len(phrases))
	})
	if err != nil {
		attempts := 0
		if result != nil {
			attempts = result.Attempts
		}
		return nil, attempts, err
	}
	return &payload, result.Attempts, nil
}

// validatePayload checks the oracle's answer against the profile contract:
// a known emotion (after lowercasing), a legal tempo and time signature, and
// exactly one phrase entry per input line with at least one syllable each.
func (r *Resolver) validatePayload(payload *profilePayload, expectedPhrases int) error {
	payload.Emotion = strings.ToLower(strings.TrimSpace(payload.Emotion))
	if _, ok := r.table[payload.Emotion]; !ok {
		return fmt.Errorf("emotion %q not in table", payload.Emotion)
	}
	if _, _, err := theory.ParseTimeSignature(payload.TimeSignature); err != nil {
		return err
	}
	if payload.Tempo < theory.TempoMin || payload.Tempo > theory.TempoMax {
		return fmt.Errorf("tempo %d outside [%d,%d]", payload.Tempo, theory.TempoMin, theory.TempoMax)
	}
	if len(payload.Phrases) != expectedPhrases {
		return fmt.Errorf("expected %d phrase entries, got %d", expectedPhrases, len(payload.Phrases))
	}
	for i, phrase := range payload.Phrases {
		if phrase.Syllables < 1 {
			return fmt.Errorf("phrase %d has %d syllables, need at least 1", i, phrase.Syllables)
		}
	}
	return nil
}

// fallback classifies with the keyword lexicon and takes tempo and signature
// from the emotion table.
func (r *Resolver) fallback(phrases []models.LyricPhrase, attempt *models.GenerationAttempt) *models.EmotionProfile {
	var b strings.Builder
	for _, phrase := range phrases {
		b.WriteString(phrase.Text)
		b.WriteString("\n")
	}

	emotion := Classify(b.String())
	params := r.table.Params(emotion)
	attempt.Source = models.SourceFallback

	log.Printf("🎭 EMOTION FROM LEXICON: %s (tempo=%d, signature=%s)",
		emotion, params.DefaultTempo(), params.TimeSignature)

	return &models.EmotionProfile{
		Emotion:       emotion,
		Tempo:         params.DefaultTempo(),
		TimeSignature: params.TimeSignature,
		Phrases:       phrases,
	}
}

func payloadSyllables(payload *profilePayload) int {
	total := 0
	for _, phrase := range payload.Phrases {
		total += phrase.Syllables
	}
	return total
}
