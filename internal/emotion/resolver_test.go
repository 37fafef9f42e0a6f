package emotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Conceptual-Machines/melodia-api/internal/llm"
	"github.com/Conceptual-Machines/melodia-api/internal/lyrics"
	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/oracle"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	raw string
	err error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(_ context.Context, _ *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.GenerationResponse{RawOutput: p.raw}, nil
}

func testTable(t *testing.T) theory.EmotionTable {
	t.Helper()
	table := theory.DefaultEmotionTable()
	require.NoError(t, table.Validate())
	return table
}

func fastAdapter(provider llm.Provider) *oracle.Adapter {
	return oracle.New(provider, oracle.Config{
		MaxRetries:    1,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 1,
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"hopeful keywords", "The sun will rise again", "hopeful"},
		{"sad keywords", "tears fall like rain when I'm alone", "sad"},
		{"no keywords resolves neutral", "lorem ipsum dolor", "neutral"},
		{"tie breaks alphabetically", "dance in the rain", "happy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestResolve_FallbackOnly(t *testing.T) {
	resolver := NewResolver(nil, testTable(t), "")

	profile, attempt, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)

	assert.Equal(t, "hopeful", profile.Emotion)
	assert.Equal(t, 90, profile.Tempo) // midpoint of the hopeful range
	assert.Equal(t, "4/4", profile.TimeSignature)
	require.Len(t, profile.Phrases, 1)
	assert.Equal(t, 6, profile.Phrases[0].SyllableCount)
	assert.Equal(t, 6, profile.TotalSyllables())

	assert.Equal(t, StageName, attempt.Stage)
	assert.Equal(t, models.SourceFallback, attempt.Source)
}

func TestResolve_OracleSuccess(t *testing.T) {
	provider := &stubProvider{raw: `{
		"emotion": "hopeful",
		"tempo": 96,
		"timeSignature": "4/4",
		"phrases": [{"line": "The sun will rise again", "syllables": 6}]
	}`}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	profile, attempt, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)

	assert.Equal(t, "hopeful", profile.Emotion)
	assert.Equal(t, 96, profile.Tempo)
	assert.Equal(t, "4/4", profile.TimeSignature)
	assert.Equal(t, 6, profile.TotalSyllables())
	assert.Equal(t, models.SourceOracle, attempt.Source)
	assert.Equal(t, 1, attempt.Attempts)
}

func TestResolve_LocalSyllablesWin(t *testing.T) {
	// Oracle disagrees on syllables; local estimate is authoritative.
	provider := &stubProvider{raw: `{
		"emotion": "happy",
		"tempo": 110,
		"timeSignature": "4/4",
		"phrases": [{"line": "The sun will rise again", "syllables": 9}]
	}`}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	profile, _, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)
	assert.Equal(t, 6, profile.TotalSyllables())
}

func TestResolve_InvalidPayloadFallsBack(t *testing.T) {
	provider := &stubProvider{raw: `{"emotion": "melancholic", "tempo": 90, "timeSignature": "4/4", "phrases": [{"line": "x", "syllables": 1}]}`}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	profile, attempt, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)

	assert.Equal(t, "hopeful", profile.Emotion)
	assert.Equal(t, models.SourceFallback, attempt.Source)
	assert.NotEmpty(t, attempt.LastError)
}

func TestResolve_ProviderErrorFallsBack(t *testing.T) {
	provider := &stubProvider{err: errors.New("boom")}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	profile, attempt, err := resolver.Resolve(context.Background(), "quiet and still tonight")
	require.NoError(t, err)
	assert.Equal(t, "calm", profile.Emotion)
	assert.Equal(t, "6/8", profile.TimeSignature)
	assert.Equal(t, models.SourceFallback, attempt.Source)
}

func TestResolve_CancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &stubProvider{err: context.Canceled}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	_, _, err := resolver.Resolve(ctx, "The sun will rise again")
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolve_InvalidLyrics(t *testing.T) {
	resolver := NewResolver(nil, testTable(t), "")
	_, _, err := resolver.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, lyrics.ErrInvalid)
}

func TestResolve_EmotionIsLowercasedBeforeLookup(t *testing.T) {
	provider := &stubProvider{raw: `{
		"emotion": "Hopeful",
		"tempo": 96,
		"timeSignature": "4/4",
		"phrases": [{"line": "The sun will rise again", "syllables": 6}]
	}`}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	profile, attempt, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)

	assert.Equal(t, "hopeful", profile.Emotion)
	assert.Equal(t, models.SourceOracle, attempt.Source)
}

func TestResolve_PhraseCardinalityMismatchFallsBack(t *testing.T) {
	// Three phrase entries for a one-line input is a schema violation, not a
	// count disagreement: the payload is rejected and the lexicon takes over.
	provider := &stubProvider{raw: `{
		"emotion": "hopeful",
		"tempo": 96,
		"timeSignature": "4/4",
		"phrases": [
			{"line": "a", "syllables": 1},
			{"line": "b", "syllables": 2},
			{"line": "c", "syllables": 4}
		]
	}`}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	profile, attempt, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, attempt.Source)
	assert.Contains(t, attempt.LastError, "phrase entries")
	assert.Equal(t, "hopeful", profile.Emotion)
	assert.Equal(t, 90, profile.Tempo)
}

func TestResolve_ZeroSyllablePhraseFallsBack(t *testing.T) {
	provider := &stubProvider{raw: `{
		"emotion": "hopeful",
		"tempo": 96,
		"timeSignature": "4/4",
		"phrases": [{"line": "The sun will rise again", "syllables": 0}]
	}`}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	_, attempt, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, attempt.Source)
	assert.Contains(t, attempt.LastError, "syllables")
}

func TestResolve_TempoOutOfRangeFallsBack(t *testing.T) {
	// An illegal tempo rejects the whole payload; it is never clamped into range.
	provider := &stubProvider{raw: `{
		"emotion": "hopeful",
		"tempo": 30,
		"timeSignature": "4/4",
		"phrases": [{"line": "The sun will rise again", "syllables": 6}]
	}`}
	resolver := NewResolver(fastAdapter(provider), testTable(t), "gpt-5-mini")

	profile, attempt, err := resolver.Resolve(context.Background(), "The sun will rise again")
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, attempt.Source)
	assert.Equal(t, 90, profile.Tempo) // lexicon midpoint, not a clamped 40
}
