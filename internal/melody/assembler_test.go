package melody

import (
	"testing"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	profile := hopefulProfile(
		models.LyricPhrase{Text: "one two", SyllableCount: 2},
		models.LyricPhrase{Text: "three", SyllableCount: 1},
	)
	key := models.Key{Tonic: "G", Mode: "major"}

	chunkNotes := [][]models.NoteEvent{
		{
			{Pitch: models.Pitch{Class: "G", Octave: 4}, DurationBeats: 1, Velocity: 80},
			{Pitch: models.Pitch{Class: "A", Octave: 4}, DurationBeats: 1.5, Velocity: 72},
		},
		{
			{Pitch: models.Pitch{Class: "B", Octave: 4}, DurationBeats: 1.5, Velocity: 80},
		},
	}

	structure, err := Assemble(profile, key, chunkNotes)
	require.NoError(t, err)

	assert.Equal(t, 3, structure.NoteCount())
	assert.Equal(t, key, structure.Key)
	assert.Equal(t, 90, structure.Tempo)
	assert.Equal(t, "4/4", structure.TimeSignature)
	assert.Equal(t, "G", structure.Notes[0].Pitch.Class)
	assert.Equal(t, "B", structure.Notes[2].Pitch.Class)
	assert.InDelta(t, 4.0, structure.TotalBeats(), 1e-9)
}

func TestAssemble_CountMismatchIsFatal(t *testing.T) {
	profile := hopefulProfile(models.LyricPhrase{Text: "one two", SyllableCount: 2})
	key := models.Key{Tonic: "G", Mode: "major"}

	chunkNotes := [][]models.NoteEvent{
		{{Pitch: models.Pitch{Class: "G", Octave: 4}, DurationBeats: 1, Velocity: 80}},
	}

	_, err := Assemble(profile, key, chunkNotes)
	require.Error(t, err)

	var violation *InvariantViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, 2, violation.Expected)
	assert.Equal(t, 1, violation.Actual)
}
