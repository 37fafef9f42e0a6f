package melody

import (
	"testing"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T, name string) models.Key {
	t.Helper()
	key, err := theory.ParseKey(name)
	require.NoError(t, err)
	return key
}

func chunkOf(phrases ...models.LyricPhrase) *models.Chunk {
	return &models.Chunk{Phrases: phrases, MaxNotes: DefaultMaxNotesPerChunk}
}

func TestContourEngine_OneNotePerSyllable(t *testing.T) {
	key := mustKey(t, "G major")
	engine := NewContourEngine(key, theory.ContourWavy, theory.RangeForKey(key))

	chunk := chunkOf(
		models.LyricPhrase{Text: "The sun will rise again", SyllableCount: 6},
		models.LyricPhrase{Text: "Bringing hope to every heart", SyllableCount: 8},
	)

	notes, state := engine.Generate(chunk, "4/4", ChunkState{})
	assert.Len(t, notes, 14)
	assert.True(t, state.Started)
	assert.True(t, state.HasPitch)
}

func TestContourEngine_Deterministic(t *testing.T) {
	key := mustKey(t, "D minor")
	chunk := chunkOf(models.LyricPhrase{Text: "shadows chase me through the storm", SyllableCount: 8})

	for _, contour := range []string{
		theory.ContourAscending, theory.ContourDescending,
		theory.ContourWavy, theory.ContourBalanced, theory.ContourErratic,
	} {
		t.Run(contour, func(t *testing.T) {
			engine := NewContourEngine(key, contour, theory.RangeForKey(key))
			first, firstState := engine.Generate(chunk, "4/4", ChunkState{})
			second, secondState := engine.Generate(chunk, "4/4", ChunkState{})
			assert.Equal(t, first, second)
			assert.Equal(t, firstState, secondState)
		})
	}
}

func TestContourEngine_AscendingClimbs(t *testing.T) {
	key := mustKey(t, "C major")
	engine := NewContourEngine(key, theory.ContourAscending, theory.RangeForKey(key))

	chunk := chunkOf(models.LyricPhrase{Text: "up and up we go", SyllableCount: 5})
	notes, state := engine.Generate(chunk, "4/4", ChunkState{})

	// Steps {1,1,2} from degree 0: 0,1,2,4,5.
	require.Len(t, notes, 5)
	assert.Equal(t, "C", notes[0].Pitch.Class)
	assert.Equal(t, "D", notes[1].Pitch.Class)
	assert.Equal(t, "E", notes[2].Pitch.Class)
	assert.Equal(t, "G", notes[3].Pitch.Class)
	assert.Equal(t, "A", notes[4].Pitch.Class)
	assert.Equal(t, 5, state.Degree)
}

func TestContourEngine_AscendingSaturatesAtTop(t *testing.T) {
	key := mustKey(t, "C major")
	engine := NewContourEngine(key, theory.ContourAscending, theory.RangeForKey(key))

	chunk := chunkOf(models.LyricPhrase{Text: "a very long climbing phrase indeed", SyllableCount: 12})
	notes, state := engine.Generate(chunk, "4/4", ChunkState{})

	require.Len(t, notes, 12)
	assert.Equal(t, theory.ScaleDegrees-1, state.Degree)
	assert.Equal(t, "B", notes[len(notes)-1].Pitch.Class)
}

func TestContourEngine_DescendingStartsAtTop(t *testing.T) {
	key := mustKey(t, "A minor")
	engine := NewContourEngine(key, theory.ContourDescending, theory.RangeForKey(key))

	chunk := chunkOf(models.LyricPhrase{Text: "falling down", SyllableCount: 3})
	notes, _ := engine.Generate(chunk, "3/4", ChunkState{})

	// Degrees 6,5,4 of A minor: G, F, E.
	require.Len(t, notes, 3)
	assert.Equal(t, "G", notes[0].Pitch.Class)
	assert.Equal(t, "F", notes[1].Pitch.Class)
	assert.Equal(t, "E", notes[2].Pitch.Class)
}

func TestContourEngine_ContinuityAcrossChunks(t *testing.T) {
	key := mustKey(t, "C major")
	engine := NewContourEngine(key, theory.ContourAscending, theory.RangeForKey(key))

	first := chunkOf(models.LyricPhrase{Text: "first part", SyllableCount: 3})
	notes1, state := engine.Generate(first, "4/4", ChunkState{})

	second := chunkOf(models.LyricPhrase{Text: "second part", SyllableCount: 3})
	second.Index = 1
	notes2, _ := engine.Generate(second, "4/4", state)

	// The second chunk continues from the first chunk's degree, not from 0.
	lastDegree := degreeOf(t, key, notes1[len(notes1)-1].Pitch.Class)
	firstDegree := degreeOf(t, key, notes2[0].Pitch.Class)
	assert.Greater(t, firstDegree, lastDegree)
}

func degreeOf(t *testing.T, key models.Key, class string) int {
	t.Helper()
	for i, c := range theory.Scale(key) {
		if c == class {
			return i
		}
	}
	t.Fatalf("pitch class %s not in scale", class)
	return -1
}

func TestContourEngine_DurationsAndVelocities(t *testing.T) {
	key := mustKey(t, "F major")
	engine := NewContourEngine(key, theory.ContourBalanced, theory.RangeForKey(key))

	chunk := chunkOf(models.LyricPhrase{Text: "gentle evening breeze", SyllableCount: 5})
	notes, _ := engine.Generate(chunk, "6/8", ChunkState{})
	require.Len(t, notes, 5)

	base := theory.BaseBeatsPerSyllable("6/8")
	assert.Equal(t, 0.5, base)

	// Interior syllables get the base unit, the phrase end 1.5x of it, and
	// the phrase-initial syllable gets the accent.
	assert.Equal(t, base, notes[1].DurationBeats)
	assert.Equal(t, base*1.5, notes[4].DurationBeats)
	assert.Equal(t, baseVelocity+phraseAccent, notes[0].Velocity)
	assert.Equal(t, baseVelocity, notes[2].Velocity)
}

func TestContourEngine_PitchesStayInRange(t *testing.T) {
	key := mustKey(t, "E major")
	vrange := theory.RangeForKey(key)
	engine := NewContourEngine(key, theory.ContourErratic, vrange)

	chunk := chunkOf(models.LyricPhrase{Text: "wild and loud tonight we burn alive", SyllableCount: 9})
	notes, _ := engine.Generate(chunk, "4/4", ChunkState{})

	for _, note := range notes {
		assert.True(t, vrange.Contains(note.Pitch), "pitch %s out of range", theory.FormatPitch(note.Pitch))
		assert.GreaterOrEqual(t, note.Velocity, 1)
		assert.LessOrEqual(t, note.Velocity, 127)
		assert.Positive(t, note.DurationBeats)
	}
}
