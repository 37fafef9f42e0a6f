package emotion

import (
	"sort"

	"github.com/Conceptual-Machines/melodia-api/internal/lyrics"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
)

// defaultLexicon maps emotions to keyword stems. Classification counts hits
// over the lyric words; it needs no external model so the fallback path stays
// fully offline.
var defaultLexicon = map[string][]string{
	"happy":   {"happy", "joy", "smile", "laugh", "dance", "sunshine", "celebrate", "play", "shine"},
	"hopeful": {"hope", "rise", "sun", "again", "dream", "tomorrow", "dawn", "light", "believe", "wings", "new"},
	"sad":     {"sad", "cry", "tears", "alone", "goodbye", "lost", "rain", "grey", "gray", "empty", "broken", "miss"},
	"tense":   {"fear", "run", "fight", "dark", "storm", "danger", "scream", "shadow", "chase", "blood"},
	"calm":    {"calm", "still", "quiet", "peace", "soft", "gentle", "slow", "breeze", "sleep", "drift"},
	"excited": {"fire", "wild", "alive", "jump", "electric", "fast", "burn", "tonight", "loud"},
}

// Classify scores lyrics against the keyword lexicon and returns the best
// matching emotion. Ties break alphabetically so the result is deterministic;
// zero hits yield the neutral emotion.
func Classify(text string) string {
	words := lyrics.Words(text)

	scores := make(map[string]int)
	for _, word := range words {
		for emotion, keywords := range defaultLexicon {
			for _, keyword := range keywords {
				if word == keyword {
					scores[emotion]++
				}
			}
		}
	}

	if len(scores) == 0 {
		return theory.NeutralEmotion
	}

	emotions := make([]string, 0, len(scores))
	for emotion := range scores {
		emotions = append(emotions, emotion)
	}
	sort.Strings(emotions)

	best := emotions[0]
	for _, emotion := range emotions[1:] {
		if scores[emotion] > scores[best] {
			best = emotion
		}
	}
	return best
}
