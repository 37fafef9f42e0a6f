package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/melodia-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the main system prompt
func (l *Loader) GetSystemPrompt() string {
	return strings.TrimSpace(string(embedded.SystemPromptTxt))
}

// GetEmotionPrompt loads the emotion analysis prompt template
func (l *Loader) GetEmotionPrompt() string {
	return strings.TrimSpace(string(embedded.EmotionPromptTxt))
}

// GetMelodyPrompt loads the chunk melody prompt template
func (l *Loader) GetMelodyPrompt() string {
	return strings.TrimSpace(string(embedded.MelodyPromptTxt))
}

// GetMelodyCorrectiveSuffix loads the corrective retry suffix template
func (l *Loader) GetMelodyCorrectiveSuffix() string {
	return strings.TrimSpace(string(embedded.MelodyCorrectiveSuffixTxt))
}
