// Package theory holds the read-only musical reference data the pipeline is
// built on: pitch class arithmetic, diatonic scale tables, the
// emotion-to-musical-parameters table and the vocal range used to bound
// generated pitches. Everything here is injected into the pipeline at
// construction time so tests can substitute alternate tables.
package theory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
)

// Mode names
const (
	ModeMajor = "major"
	ModeMinor = "minor"
)

// Contour names for the deterministic fallback generator.
const (
	ContourAscending  = "ascending"
	ContourDescending = "descending"
	ContourWavy       = "wavy"
	ContourBalanced   = "balanced"
	ContourErratic    = "erratic"
)

const (
	// ScaleDegrees is the number of diatonic degrees in a key (indices 0..6).
	ScaleDegrees = 7

	// MiddleOctave is the default register for generated melodies.
	MiddleOctave = 4

	semitonesPerOctave = 12
	midiNoteMax        = 127
)

// semitones maps pitch class names (sharp and flat spellings) to their
// semitone offset from C.
var semitones = map[string]int{
	"C": 0, "B#": 0,
	"C#": 1, "Db": 1,
	"D": 2,
	"D#": 3, "Eb": 3,
	"E": 4, "Fb": 4,
	"F": 5, "E#": 5,
	"F#": 6, "Gb": 6,
	"G": 7,
	"G#": 8, "Ab": 8,
	"A": 9,
	"A#": 10, "Bb": 10,
	"B": 11, "Cb": 11,
}

// scaleTable lists the diatonic pitch classes for the keys the emotion table
// can reference, with conventional spellings (F major uses Bb, not A#).
var scaleTable = map[string][]string{
	"C major":  {"C", "D", "E", "F", "G", "A", "B"},
	"G major":  {"G", "A", "B", "C", "D", "E", "F#"},
	"D major":  {"D", "E", "F#", "G", "A", "B", "C#"},
	"A major":  {"A", "B", "C#", "D", "E", "F#", "G#"},
	"E major":  {"E", "F#", "G#", "A", "B", "C#", "D#"},
	"F major":  {"F", "G", "A", "Bb", "C", "D", "E"},
	"Bb major": {"Bb", "C", "D", "Eb", "F", "G", "A"},
	"A minor":  {"A", "B", "C", "D", "E", "F", "G"},
	"D minor":  {"D", "E", "F", "G", "A", "Bb", "C"},
	"E minor":  {"E", "F#", "G", "A", "B", "C", "D"},
	"B minor":  {"B", "C#", "D", "E", "F#", "G", "A"},
	"F# minor": {"F#", "G#", "A", "B", "C#", "D", "E"},
}

// Interval patterns used for keys not covered by the spelling table.
var (
	majorIntervals = []int{0, 2, 4, 5, 7, 9, 11}
	minorIntervals = []int{0, 2, 3, 5, 7, 8, 10}

	sharpNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
)

// ParseKey parses a key string like "G major" or "A minor".
func ParseKey(s string) (models.Key, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 2 {
		return models.Key{}, fmt.Errorf("invalid key %q: expected \"<tonic> <mode>\"", s)
	}
	tonic := normalizeClass(parts[0])
	mode := strings.ToLower(parts[1])
	if _, ok := semitones[tonic]; !ok {
		return models.Key{}, fmt.Errorf("invalid key %q: unknown tonic %q", s, parts[0])
	}
	if mode != ModeMajor && mode != ModeMinor {
		return models.Key{}, fmt.Errorf("invalid key %q: unknown mode %q", s, parts[1])
	}
	return models.Key{Tonic: tonic, Mode: mode}, nil
}

// KeyName formats a key back to its "G major" form.
func KeyName(key models.Key) string {
	return key.Tonic + " " + key.Mode
}

// Scale returns the seven diatonic pitch classes of the key, tonic first.
func Scale(key models.Key) []string {
	if classes, ok := scaleTable[KeyName(key)]; ok {
		return classes
	}
	intervals := majorIntervals
	if key.Mode == ModeMinor {
		intervals = minorIntervals
	}
	root := semitones[key.Tonic]
	classes := make([]string, 0, ScaleDegrees)
	for _, interval := range intervals {
		classes = append(classes, sharpNames[(root+interval)%semitonesPerOctave])
	}
	return classes
}

// ParsePitch parses a pitch name like "G4", "F#3" or "Bb5".
func ParsePitch(s string) (models.Pitch, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return models.Pitch{}, fmt.Errorf("invalid pitch %q", s)
	}
	split := len(s)
	for split > 0 && (s[split-1] == '-' || (s[split-1] >= '0' && s[split-1] <= '9')) {
		split--
	}
	class := normalizeClass(s[:split])
	if _, ok := semitones[class]; !ok {
		return models.Pitch{}, fmt.Errorf("invalid pitch %q: unknown pitch class %q", s, s[:split])
	}
	octave, err := strconv.Atoi(s[split:])
	if err != nil {
		return models.Pitch{}, fmt.Errorf("invalid pitch %q: bad octave", s)
	}
	return models.Pitch{Class: class, Octave: octave}, nil
}

// FormatPitch renders a pitch as its name, e.g. "G4".
func FormatPitch(p models.Pitch) string {
	return fmt.Sprintf("%s%d", p.Class, p.Octave)
}

// MidiNumber converts a pitch to its MIDI note number (C4 = 60).
func MidiNumber(p models.Pitch) int {
	return (p.Octave+1)*semitonesPerOctave + semitones[p.Class]
}

// PitchForDegree places a scale degree with the tonic anchored at the given
// octave; degrees always sound at or above that tonic.
func PitchForDegree(key models.Key, degree, octave int) models.Pitch {
	classes := Scale(key)
	class := classes[((degree%ScaleDegrees)+ScaleDegrees)%ScaleDegrees]
	p := models.Pitch{Class: class, Octave: octave}
	if semitones[class] < semitones[key.Tonic] {
		p.Octave++
	}
	return p
}

// MidiToPitch converts a MIDI note number to a pitch with sharp spelling.
func MidiToPitch(n int) models.Pitch {
	if n < 0 {
		n = 0
	}
	if n > midiNoteMax {
		n = midiNoteMax
	}
	return models.Pitch{
		Class:  sharpNames[n%semitonesPerOctave],
		Octave: n/semitonesPerOctave - 1,
	}
}

// normalizeClass upcases the letter and keeps accidental casing ("bb" -> "Bb").
func normalizeClass(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	class := strings.ToUpper(s[:1])
	if len(s) > 1 {
		accidental := s[1:]
		if accidental == "B" || accidental == "b" {
			class += "b"
		} else {
			class += accidental
		}
	}
	return class
}

// VocalRange bounds generated pitches, expressed as inclusive MIDI numbers.
type VocalRange struct {
	LowMidi  int
	HighMidi int
}

// Contains reports whether the pitch lies inside the range.
func (r VocalRange) Contains(p models.Pitch) bool {
	n := MidiNumber(p)
	return n >= r.LowMidi && n <= r.HighMidi
}

// Span returns the width of the range in semitones.
func (r VocalRange) Span() int {
	return r.HighMidi - r.LowMidi
}

// RangeForKey returns the default vocal range for a key: two octaves centered
// on the tonic in the middle octave.
func RangeForKey(key models.Key) VocalRange {
	center := MidiNumber(models.Pitch{Class: key.Tonic, Octave: MiddleOctave})
	return VocalRange{LowMidi: center - semitonesPerOctave, HighMidi: center + semitonesPerOctave}
}

// ClipToRange moves a pitch by whole octaves until it lies inside the range.
// The pitch class is preserved; only the octave changes.
func ClipToRange(p models.Pitch, r VocalRange) models.Pitch {
	for MidiNumber(p) < r.LowMidi {
		p.Octave++
	}
	for MidiNumber(p) > r.HighMidi {
		p.Octave--
	}
	return p
}

// Allowed time signature components.
var (
	allowedNumerators   = map[int]bool{2: true, 3: true, 4: true, 6: true, 9: true, 12: true}
	allowedDenominators = map[int]bool{2: true, 4: true, 8: true}
)

// ParseTimeSignature validates and splits an "N/M" time signature.
func ParseTimeSignature(s string) (num, den int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time signature %q", s)
	}
	num, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time signature %q", s)
	}
	den, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time signature %q", s)
	}
	if !allowedNumerators[num] || !allowedDenominators[den] {
		return 0, 0, fmt.Errorf("unsupported time signature %q", s)
	}
	return num, den, nil
}

// BaseBeatsPerSyllable derives the base note duration (in quarter-note beats)
// from a time signature: one beat in x/4 meters, half a beat in x/8 meters.
func BaseBeatsPerSyllable(timeSignature string) float64 {
	_, den, err := ParseTimeSignature(timeSignature)
	if err != nil {
		den = 4
	}
	return 4.0 / float64(den)
}
