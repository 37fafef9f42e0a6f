// Package lyrics normalizes raw lyric text, splits it into phrases and
// estimates syllable counts with a vowel-group heuristic.
package lyrics

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
)

const maxLyricsLength = 10000

// ErrInvalid marks lyric input the pipeline cannot use. Callers test for it
// with errors.Is to distinguish bad input from internal failures.
var ErrInvalid = errors.New("invalid lyrics")

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// Normalize collapses runs of spaces and trims the text while preserving line
// breaks. It rejects empty or oversized input.
func Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: text is empty", ErrInvalid)
	}
	if len(raw) > maxLyricsLength {
		return "", fmt.Errorf("%w: text exceeds %d characters", ErrInvalid, maxLyricsLength)
	}

	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized), nil
}

// SplitLines breaks normalized lyrics into phrases. Newlines win; texts
// without them fall back to sentence punctuation, then commas, then the whole
// text as a single phrase.
func SplitLines(text string) []string {
	var parts []string
	switch {
	case strings.Contains(text, "\n"):
		parts = strings.Split(text, "\n")
	case strings.Contains(text, "."):
		parts = strings.Split(text, ".")
	case strings.Contains(text, ","):
		parts = strings.Split(text, ",")
	default:
		parts = []string{text}
	}

	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// Phrases parses raw lyrics into phrases with estimated syllable counts.
func Phrases(raw string) ([]models.LyricPhrase, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	lines := SplitLines(normalized)
	phrases := make([]models.LyricPhrase, 0, len(lines))
	for _, line := range lines {
		phrases = append(phrases, models.LyricPhrase{
			Text:          line,
			SyllableCount: CountSyllables(line),
		})
	}
	return phrases, nil
}

// Words returns the lowercase words of a phrase with punctuation stripped.
func Words(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
