// Package prompt assembles the oracle prompts from embedded templates.
// Templates use {{TOKEN}} placeholders filled by simple replacement.
package prompt

import (
	"fmt"
	"strings"
)

// Builder builds prompts for the melody oracle
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// SystemPrompt returns the shared composer system prompt.
func (b *Builder) SystemPrompt() string {
	return b.loader.GetSystemPrompt()
}

// BuildEmotionAnalysis renders the emotion/rhythm classification prompt for
// the given lyric lines and allowed vocabularies.
func (b *Builder) BuildEmotionAnalysis(lines, emotions, timeSignatures []string) string {
	replacer := strings.NewReplacer(
		"{{LINES}}", strings.Join(lines, "\n"),
		"{{EMOTIONS}}", strings.Join(emotions, ", "),
		"{{TIME_SIGNATURES}}", strings.Join(timeSignatures, ", "),
	)
	return replacer.Replace(b.loader.GetEmotionPrompt())
}

// MelodyInput carries the musical context for one chunk prompt.
type MelodyInput struct {
	Lyrics        string
	Emotion       string
	Key           string
	Tempo         int
	TimeSignature string
	RangeLow      string
	RangeHigh     string
	PreviousPitch string // empty for the first chunk
	NoteCount     int
}

// BuildMelodyChunk renders the note-generation prompt for one chunk.
func (b *Builder) BuildMelodyChunk(input MelodyInput) string {
	registerHint := ""
	if input.PreviousPitch != "" {
		registerHint = fmt.Sprintf("- The previous fragment ended on %s; continue smoothly from there.", input.PreviousPitch)
	}

	replacer := strings.NewReplacer(
		"{{LYRICS}}", input.Lyrics,
		"{{EMOTION}}", input.Emotion,
		"{{KEY}}", input.Key,
		"{{TEMPO}}", fmt.Sprintf("%d", input.Tempo),
		"{{TIME_SIGNATURE}}", input.TimeSignature,
		"{{RANGE_LOW}}", input.RangeLow,
		"{{RANGE_HIGH}}", input.RangeHigh,
		"{{REGISTER_HINT}}", registerHint,
		"{{NOTE_COUNT}}", fmt.Sprintf("%d", input.NoteCount),
	)
	rendered := replacer.Replace(b.loader.GetMelodyPrompt())

	// Drop the blank line left behind when there is no register hint.
	return strings.TrimSpace(strings.ReplaceAll(rendered, "\n\n\nReturn", "\n\nReturn"))
}

// BuildCorrectiveSuffix renders the follow-up appended after a rejected
// oracle payload, restating the reason and the required note count.
func (b *Builder) BuildCorrectiveSuffix(reason string, noteCount int) string {
	replacer := strings.NewReplacer(
		"{{ERROR}}", reason,
		"{{NOTE_COUNT}}", fmt.Sprintf("%d", noteCount),
	)
	return replacer.Replace(b.loader.GetMelodyCorrectiveSuffix())
}
