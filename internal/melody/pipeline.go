package melody

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/melodia-api/internal/emotion"
	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/oracle"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
	"github.com/getsentry/sentry-go"
)

// Options configures one pipeline instance.
type Options struct {
	Model            string
	MaxNotesPerChunk int
}

// Result bundles everything one generation run produced.
type Result struct {
	Profile  *models.EmotionProfile     `json:"profile"`
	Melody   *models.MelodyStructure    `json:"melody"`
	Attempts []models.GenerationAttempt `json:"attempts"`
	Duration time.Duration              `json:"-"`
}

// Pipeline runs lyrics end to end: resolve emotion, plan chunks, synthesize
// notes chunk by chunk (sequentially — each chunk's register depends on the
// previous one) and assemble the final melody.
type Pipeline struct {
	adapter  *oracle.Adapter // nil runs fully offline
	resolver *emotion.Resolver
	table    theory.EmotionTable
	opts     Options
}

// NewPipeline validates the configuration and builds a pipeline. A nil
// adapter yields a deterministic, oracle-free pipeline.
func NewPipeline(adapter *oracle.Adapter, table theory.EmotionTable, opts Options) (*Pipeline, error) {
	if opts.MaxNotesPerChunk <= 0 {
		return nil, fmt.Errorf("configuration error: maxNotesPerChunk must be positive, got %d", opts.MaxNotesPerChunk)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &Pipeline{
		adapter:  adapter,
		resolver: emotion.NewResolver(adapter, table, opts.Model),
		table:    table,
		opts:     opts,
	}, nil
}

// Analyze resolves the emotion profile only, for dry-run previews.
func (p *Pipeline) Analyze(ctx context.Context, rawLyrics string) (*models.EmotionProfile, models.GenerationAttempt, error) {
	return p.resolver.Resolve(ctx, rawLyrics)
}

// Generate turns raw lyrics into a melody. The returned melody always carries
// exactly one note per input syllable.
func (p *Pipeline) Generate(ctx context.Context, rawLyrics string) (*Result, error) {
	startTime := time.Now()
	transaction := sentry.StartTransaction(ctx, "melody.generate")
	defer transaction.Finish()

	profile, emotionAttempt, err := p.resolver.Resolve(transaction.Context(), rawLyrics)
	if err != nil {
		return nil, err
	}

	params := p.table.Params(profile.Emotion)
	key := params.Key
	vrange := theory.RangeForKey(key)

	chunks := PlanChunks(profile.Phrases, p.opts.MaxNotesPerChunk)
	log.Printf("📐 PLANNED %d CHUNKS for %d syllables (emotion=%s, key=%s)",
		len(chunks), profile.TotalSyllables(), profile.Emotion, theory.KeyName(key))

	synth := NewSynthesizer(p.adapter, p.opts.Model, profile, key, params.Contour, vrange)

	attempts := make([]models.GenerationAttempt, 0, len(chunks)+1)
	attempts = append(attempts, emotionAttempt)

	chunkNotes := make([][]models.NoteEvent, 0, len(chunks))
	state := ChunkState{}
	for i := range chunks {
		notes, newState, attempt, err := synth.Synthesize(transaction.Context(), &chunks[i], state)
		if err != nil {
			transaction.SetTag("success", "false")
			return nil, err
		}
		chunkNotes = append(chunkNotes, notes)
		attempts = append(attempts, attempt)
		state = newState
	}

	structure, err := Assemble(profile, key, chunkNotes)
	if err != nil {
		// Loud: this is the unreachable-by-design defect signal.
		sentry.CaptureException(err)
		transaction.SetTag("success", "false")
		return nil, err
	}

	duration := time.Since(startTime)
	transaction.SetTag("success", "true")
	log.Printf("✅ MELODY GENERATED in %v: %d notes, key=%s, tempo=%d, signature=%s",
		duration, structure.NoteCount(), theory.KeyName(key), structure.Tempo, structure.TimeSignature)

	return &Result{
		Profile:  profile,
		Melody:   structure,
		Attempts: attempts,
		Duration: duration,
	}, nil
}
