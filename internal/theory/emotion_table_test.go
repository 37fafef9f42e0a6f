package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmotionTableValidates(t *testing.T) {
	table := DefaultEmotionTable()
	require.NoError(t, table.Validate())

	// Validate resolves every KeyName into a parsed Key.
	hopeful := table.Params("hopeful")
	assert.Equal(t, "G", hopeful.Key.Tonic)
	assert.Equal(t, ModeMajor, hopeful.Key.Mode)

	sad := table.Params("sad")
	assert.Equal(t, "A", sad.Key.Tonic)
	assert.Equal(t, ModeMinor, sad.Key.Mode)
	assert.Equal(t, "3/4", sad.TimeSignature)
	assert.Equal(t, ContourDescending, sad.Contour)
}

func TestParamsFallsBackToNeutral(t *testing.T) {
	table := DefaultEmotionTable()
	require.NoError(t, table.Validate())

	params := table.Params("melancholic")
	assert.Equal(t, table.Params(NeutralEmotion), params)
	assert.Equal(t, "C", params.Key.Tonic)
	assert.Equal(t, ContourBalanced, params.Contour)
}

func TestDefaultTempoIsMidpoint(t *testing.T) {
	table := DefaultEmotionTable()
	assert.Equal(t, 90, table.Params("hopeful").DefaultTempo())
	assert.Equal(t, 70, table.Params("calm").DefaultTempo())
	assert.Equal(t, 130, table.Params("excited").DefaultTempo())
}

func TestEmotionsSorted(t *testing.T) {
	table := DefaultEmotionTable()
	assert.Equal(t,
		[]string{"calm", "excited", "happy", "hopeful", "neutral", "sad", "tense"},
		table.Emotions())
}

func TestTimeSignaturesSortedDistinct(t *testing.T) {
	table := DefaultEmotionTable()
	assert.Equal(t, []string{"3/4", "4/4", "6/8"}, table.TimeSignatures())
}

func TestValidateRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		table EmotionTable
	}{
		{"empty", EmotionTable{}},
		{"missing neutral", EmotionTable{
			"happy": {KeyName: "C major", TempoMin: 100, TempoMax: 120, TimeSignature: "4/4", Contour: ContourAscending},
		}},
		{"bad key", EmotionTable{
			NeutralEmotion: {KeyName: "H major", TempoMin: 90, TempoMax: 110, TimeSignature: "4/4", Contour: ContourBalanced},
		}},
		{"inverted tempo range", EmotionTable{
			NeutralEmotion: {KeyName: "C major", TempoMin: 120, TempoMax: 90, TimeSignature: "4/4", Contour: ContourBalanced},
		}},
		{"tempo out of bounds", EmotionTable{
			NeutralEmotion: {KeyName: "C major", TempoMin: 20, TempoMax: 90, TimeSignature: "4/4", Contour: ContourBalanced},
		}},
		{"bad time signature", EmotionTable{
			NeutralEmotion: {KeyName: "C major", TempoMin: 90, TempoMax: 110, TimeSignature: "5/4", Contour: ContourBalanced},
		}},
		{"unknown contour", EmotionTable{
			NeutralEmotion: {KeyName: "C major", TempoMin: 90, TempoMax: 110, TimeSignature: "4/4", Contour: "spiral"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.table.Validate())
		})
	}
}
