package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt(t *testing.T) {
	b := NewPromptBuilder()
	system := b.SystemPrompt()
	require.NotEmpty(t, system)
	assert.Contains(t, system, "one note per syllable")
	assert.NotContains(t, system, "{{")
}

func TestBuildEmotionAnalysis(t *testing.T) {
	b := NewPromptBuilder()

	rendered := b.BuildEmotionAnalysis(
		[]string{"The sun will rise again", "Bringing hope to every heart"},
		[]string{"happy", "hopeful", "sad"},
		[]string{"4/4", "3/4"},
	)

	assert.Contains(t, rendered, "The sun will rise again\nBringing hope to every heart")
	assert.Contains(t, rendered, "happy, hopeful, sad")
	assert.Contains(t, rendered, "4/4, 3/4")
	assert.NotContains(t, rendered, "{{")
}

func TestBuildMelodyChunk(t *testing.T) {
	b := NewPromptBuilder()

	rendered := b.BuildMelodyChunk(MelodyInput{
		Lyrics:        "The sun will rise again",
		Emotion:       "hopeful",
		Key:           "G major",
		Tempo:         90,
		TimeSignature: "4/4",
		RangeLow:      "G3",
		RangeHigh:     "G5",
		PreviousPitch: "B4",
		NoteCount:     6,
	})

	assert.Contains(t, rendered, "The sun will rise again")
	assert.Contains(t, rendered, "G major")
	assert.Contains(t, rendered, "90 BPM")
	assert.Contains(t, rendered, "G3 to G5")
	assert.Contains(t, rendered, "ended on B4")
	assert.Contains(t, rendered, "exactly 6 notes")
	assert.NotContains(t, rendered, "{{")
}

func TestBuildMelodyChunk_NoRegisterHint(t *testing.T) {
	b := NewPromptBuilder()

	rendered := b.BuildMelodyChunk(MelodyInput{
		Lyrics:        "First phrase",
		Emotion:       "calm",
		Key:           "F major",
		Tempo:         70,
		TimeSignature: "6/8",
		RangeLow:      "F3",
		RangeHigh:     "F5",
		NoteCount:     3,
	})

	assert.NotContains(t, rendered, "ended on")
	assert.NotContains(t, rendered, "{{")
	assert.False(t, strings.Contains(rendered, "\n\n\n"), "no triple blank lines")
}

func TestBuildCorrectiveSuffix(t *testing.T) {
	b := NewPromptBuilder()

	rendered := b.BuildCorrectiveSuffix("expected 6 notes, got 5", 6)
	assert.Contains(t, rendered, "expected 6 notes, got 5")
	assert.Contains(t, rendered, "exactly 6 notes")
	assert.NotContains(t, rendered, "{{")
}
