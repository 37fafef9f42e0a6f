package melody

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Conceptual-Machines/melodia-api/internal/llm"
	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/oracle"
	"github.com/Conceptual-Machines/melodia-api/internal/prompt"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
	"github.com/getsentry/sentry-go"
)

// StageName identifies the synthesis stage in diagnostics.
const StageName = "melody"

// Synthesizer produces one chunk's notes at a time. It asks the oracle first,
// retries once with a corrective prompt on a schema violation, and otherwise
// hands the chunk to the deterministic contour engine. Either way the note
// count always equals the chunk's syllable count.
type Synthesizer struct {
	adapter *oracle.Adapter // nil forces the fallback path
	prompts *prompt.Builder
	engine  *ContourEngine

	model         string
	emotion       string
	key           models.Key
	tempo         int
	timeSignature string
	vrange        theory.VocalRange
}

// NewSynthesizer builds a synthesizer for one pipeline run. Key, tempo and
// time signature are fixed for the whole run; only pitch choices vary per
// chunk.
func NewSynthesizer(
	adapter *oracle.Adapter,
	model string,
	profile *models.EmotionProfile,
	key models.Key,
	contour string,
	vrange theory.VocalRange,
) *Synthesizer {
	return &Synthesizer{
		adapter:       adapter,
		prompts:       prompt.NewPromptBuilder(),
		engine:        NewContourEngine(key, contour, vrange),
		model:         model,
		emotion:       profile.Emotion,
		key:           key,
		tempo:         profile.Tempo,
		timeSignature: profile.TimeSignature,
		vrange:        vrange,
	}
}

// notesPayload is the oracle's structured answer for one chunk.
type notesPayload struct {
	Notes []struct {
		Pitch         string  `json:"pitch"`
		DurationBeats float64 `json:"durationBeats"`
		Velocity      *int    `json:"velocity"`
	} `json:"notes"`
}

// Synthesize produces the chunk's notes and the continuity state for the next
// chunk. It returns an error only on context cancellation or an internal
// note-count defect; oracle trouble degrades to the fallback silently.
func (s *Synthesizer) Synthesize(ctx context.Context, chunk *models.Chunk, state ChunkState) ([]models.NoteEvent, ChunkState, models.GenerationAttempt, error) {
	span := sentry.StartSpan(ctx, "melody.synthesize")
	defer span.Finish()
	span.SetTag("chunk", fmt.Sprintf("%d", chunk.Index))

	attempt := models.GenerationAttempt{Stage: StageName, ChunkIndex: chunk.Index}

	if s.adapter != nil {
		notes, oracleAttempts, err := s.askOracle(ctx, chunk, state)
		attempt.Attempts = oracleAttempts
		if err == nil {
			attempt.Source = models.SourceOracle
			newState := stateAfterOracle(s.key, state, notes)
			log.Printf("🎼 CHUNK %d FROM ORACLE: %d notes", chunk.Index, len(notes))
			return notes, newState, attempt, nil
		}
		if ctx.Err() != nil {
			return nil, state, attempt, ctx.Err()
		}
		log.Printf("⚠️  CHUNK %d ORACLE FAILED, USING CONTOUR ENGINE: %v", chunk.Index, err)
		attempt.LastError = err.Error()
	}

	attempt.Source = models.SourceFallback
	notes, newState := s.engine.Generate(chunk, s.timeSignature, state)

	// The engine emits one note per syllable by construction; anything else
	// is a programming defect and must fail loudly.
	if len(notes) != chunk.Syllables() {
		return nil, state, attempt, &InvariantViolation{
			Scope:    fmt.Sprintf("chunk %d", chunk.Index),
			Expected: chunk.Syllables(),
			Actual:   len(notes),
		}
	}

	log.Printf("🎼 CHUNK %d FROM CONTOUR ENGINE: %d notes", chunk.Index, len(notes))
	return notes, newState, attempt, nil
}

// askOracle requests the chunk's notes, retrying once with a corrective
// prompt when the payload violates the schema.
func (s *Synthesizer) askOracle(ctx context.Context, chunk *models.Chunk, state ChunkState) ([]models.NoteEvent, int, error) {
	previousPitch := ""
	if state.HasPitch {
		previousPitch = theory.FormatPitch(state.LastPitch)
	}

	basePrompt := s.prompts.BuildMelodyChunk(prompt.MelodyInput{
		Lyrics:        chunk.Text(),
		Emotion:       s.emotion,
		Key:           theory.KeyName(s.key),
		Tempo:         s.tempo,
		TimeSignature: s.timeSignature,
		RangeLow:      theory.FormatPitch(theory.MidiToPitch(s.vrange.LowMidi)),
		RangeHigh:     theory.FormatPitch(theory.MidiToPitch(s.vrange.HighMidi)),
		PreviousPitch: previousPitch,
		NoteCount:     chunk.Syllables(),
	})

	input := []map[string]any{{"role": "user", "content": basePrompt}}

	notes, attempts, err := s.invokeOnce(ctx, chunk, input)
	if err == nil || !oracle.IsInvalidSchema(err) {
		return notes, attempts, err
	}

	// One corrective retry: restate the rejection reason and the count.
	var oerr *oracle.Error
	reason := err.Error()
	if errors.As(err, &oerr) && oerr.Err != nil {
		reason = oerr.Err.Error()
	}
	log.Printf("🔁 CHUNK %d CORRECTIVE RETRY: %s", chunk.Index, reason)

	corrective := append(input, map[string]any{
		"role":    "user",
		"content": s.prompts.BuildCorrectiveSuffix(reason, chunk.Syllables()),
	})
	notes, retryAttempts, err := s.invokeOnce(ctx, chunk, corrective)
	return notes, attempts + retryAttempts, err
}

// invokeOnce runs a single adapter call (which handles transient retries
// internally) and validates the payload into note events.
func (s *Synthesizer) invokeOnce(ctx context.Context, chunk *models.Chunk, input []map[string]any) ([]models.NoteEvent, int, error) {
	request := &llm.GenerationRequest{
		Model:        s.model,
		SystemPrompt: s.prompts.SystemPrompt(),
		InputArray:   input,
		OutputSchema: &llm.OutputSchema{
			Name:        "note_list",
			Description: "One note per syllable for a melody fragment",
			Schema:      llm.GetNoteListSchema(),
		},
	}

	var notes []models.NoteEvent
	result, err := s.adapter.Invoke(ctx, request, func(raw string) error {
		parsed, perr := s.parseNotes(raw, chunk.Syllables())
		if perr != nil {
			return perr
		}
		notes = parsed
		return nil
	})
	if err != nil {
		attempts := 0
		if result != nil {
			attempts = result.Attempts
		}
		return nil, attempts, err
	}
	return notes, result.Attempts, nil
}

// parseNotes validates an oracle payload: exact count, resolvable pitches
// inside the vocal range, positive durations, defaulted velocities.
func (s *Synthesizer) parseNotes(raw string, wantCount int) ([]models.NoteEvent, error) {
	var payload notesPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode note list: %w", err)
	}
	if len(payload.Notes) != wantCount {
		return nil, fmt.Errorf("expected %d notes, got %d", wantCount, len(payload.Notes))
	}

	notes := make([]models.NoteEvent, 0, wantCount)
	for i, n := range payload.Notes {
		pitch, err := theory.ParsePitch(n.Pitch)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
		if !s.vrange.Contains(pitch) {
			return nil, fmt.Errorf("note %d: pitch %s outside vocal range", i, n.Pitch)
		}
		if n.DurationBeats <= 0 {
			return nil, fmt.Errorf("note %d: non-positive duration %v", i, n.DurationBeats)
		}
		velocity := llm.DefaultVelocity()
		if n.Velocity != nil {
			velocity = clampVelocity(*n.Velocity)
		}
		notes = append(notes, models.NoteEvent{
			Pitch:         pitch,
			DurationBeats: n.DurationBeats,
			Velocity:      velocity,
		})
	}
	return notes, nil
}

// stateAfterOracle folds an oracle chunk's ending into the continuity state
// so a later fallback chunk keeps moving from the right register.
func stateAfterOracle(key models.Key, state ChunkState, notes []models.NoteEvent) ChunkState {
	if len(notes) == 0 {
		return state
	}
	last := notes[len(notes)-1]
	state.LastPitch = last.Pitch
	state.HasPitch = true
	state.Started = true
	for i, class := range theory.Scale(key) {
		if class == last.Pitch.Class {
			state.Degree = i
			break
		}
	}
	return state
}
