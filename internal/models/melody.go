package models

// LyricPhrase is a single lyric line with its estimated syllable count.
// Immutable once produced by lyrics parsing or emotion resolution.
type LyricPhrase struct {
	Text          string `json:"text"`
	SyllableCount int    `json:"syllableCount"`
}

// EmotionProfile is the resolved emotional/rhythmic metadata for a lyric input.
// Emotion is normalized to lowercase, tempo is BPM in [40,200] and the time
// signature is one of the allowed N/M combinations.
type EmotionProfile struct {
	Emotion       string        `json:"emotion"`
	Tempo         int           `json:"tempo"`
	TimeSignature string        `json:"timeSignature"`
	Phrases       []LyricPhrase `json:"phrases"`
}

// TotalSyllables returns the sum of syllable counts over all phrases.
// This is the exact number of notes the pipeline must produce.
func (p *EmotionProfile) TotalSyllables() int {
	total := 0
	for _, phrase := range p.Phrases {
		total += phrase.SyllableCount
	}
	return total
}

// Chunk is a bounded-size, phrase-aligned slice of the syllable stream
// processed as one generation unit. Chunks partition the profile's phrases
// with no gaps or overlaps, ordered by Index.
type Chunk struct {
	Index          int           `json:"index"`
	Phrases        []LyricPhrase `json:"phrases"`
	SyllableOffset int           `json:"syllableOffset"`
	MaxNotes       int           `json:"maxNotes"`
}

// Syllables returns the syllable count covered by this chunk.
func (c *Chunk) Syllables() int {
	total := 0
	for _, phrase := range c.Phrases {
		total += phrase.SyllableCount
	}
	return total
}

// Text joins the chunk's lyric lines into one string, used for prompts and
// for seeding the deterministic fallback generator.
func (c *Chunk) Text() string {
	text := ""
	for i, phrase := range c.Phrases {
		if i > 0 {
			text += " "
		}
		text += phrase.Text
	}
	return text
}

// Pitch is a concrete pitch: a pitch class name plus an octave.
type Pitch struct {
	Class  string `json:"pitchClass"`
	Octave int    `json:"octave"`
}

// NoteEvent is a single pitched note of the melodic skeleton.
type NoteEvent struct {
	Pitch         Pitch   `json:"pitch"`
	DurationBeats float64 `json:"durationBeats"`
	Velocity      int     `json:"velocity"`
}

// Key is a diatonic key: tonic pitch class plus mode.
type Key struct {
	Tonic string `json:"tonicPitchClass"`
	Mode  string `json:"mode"` // "major" or "minor"
}

// MelodyStructure is the final pipeline output: key, tempo, time signature and
// the ordered note sequence, one note per input syllable. It is immutable
// after assembly.
type MelodyStructure struct {
	Key           Key         `json:"key"`
	Tempo         int         `json:"tempo"`
	TimeSignature string      `json:"timeSignature"`
	Notes         []NoteEvent `json:"notes"`
}

// NoteCount returns the number of notes in the melody.
func (m *MelodyStructure) NoteCount() int {
	return len(m.Notes)
}

// TotalBeats returns the total duration of the melody in beats.
func (m *MelodyStructure) TotalBeats() float64 {
	total := 0.0
	for _, n := range m.Notes {
		total += n.DurationBeats
	}
	return total
}

// Generation sources for diagnostics.
const (
	SourceOracle   = "oracle"
	SourceFallback = "fallback"
)

// GenerationAttempt records how one stage or chunk was produced. Ephemeral,
// used only for diagnostics in responses and logs, never persisted.
type GenerationAttempt struct {
	Stage      string `json:"stage"`                // "emotion" or "melody"
	ChunkIndex int    `json:"chunkIndex"`           // -1 for the emotion stage
	Attempts   int    `json:"attempts"`             // oracle attempts made (including retries)
	Source     string `json:"source"`               // SourceOracle or SourceFallback
	LastError  string `json:"lastError,omitempty"`  // last oracle error before fallback, if any
}
