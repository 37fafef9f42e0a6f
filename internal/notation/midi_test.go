package notation

import (
	"bytes"
	"testing"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMelody() *models.MelodyStructure {
	return &models.MelodyStructure{
		Key:           models.Key{Tonic: "G", Mode: "major"},
		Tempo:         90,
		TimeSignature: "4/4",
		Notes: []models.NoteEvent{
			{Pitch: models.Pitch{Class: "G", Octave: 4}, DurationBeats: 1, Velocity: 80},
			{Pitch: models.Pitch{Class: "A", Octave: 4}, DurationBeats: 1, Velocity: 72},
			{Pitch: models.Pitch{Class: "B", Octave: 4}, DurationBeats: 1.5, Velocity: 72},
		},
	}
}

func TestExportMIDI(t *testing.T) {
	phrases := []models.LyricPhrase{{Text: "rise again now", SyllableCount: 3}}

	var buf bytes.Buffer
	err := ExportMIDI(sampleMelody(), phrases, &buf)
	require.NoError(t, err)

	data := buf.Bytes()
	require.NotEmpty(t, data)
	assert.Equal(t, []byte("MThd"), data[:4], "standard MIDI header")
	assert.Contains(t, string(data), "rise again now", "lyric meta event present")
	assert.Contains(t, string(data), "Vocal")
}

func TestExportMIDI_NoNotes(t *testing.T) {
	var buf bytes.Buffer
	err := ExportMIDI(&models.MelodyStructure{}, nil, &buf)
	assert.Error(t, err)

	err = ExportMIDI(nil, nil, &buf)
	assert.Error(t, err)
}

func TestExportMIDI_PhraseMismatch(t *testing.T) {
	phrases := []models.LyricPhrase{{Text: "too many syllables here", SyllableCount: 7}}

	var buf bytes.Buffer
	err := ExportMIDI(sampleMelody(), phrases, &buf)
	assert.Error(t, err)
}

func TestBeatsToTicks(t *testing.T) {
	assert.Equal(t, uint32(480), beatsToTicks(1))
	assert.Equal(t, uint32(720), beatsToTicks(1.5))
	assert.Equal(t, uint32(1), beatsToTicks(0))
}
