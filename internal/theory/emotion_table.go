package theory

import (
	"fmt"
	"sort"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
)

// Tempo bounds for any resolved profile, in BPM.
const (
	TempoMin = 40
	TempoMax = 200
)

// NeutralEmotion is used when no table entry matches.
const NeutralEmotion = "neutral"

// EmotionParams are the musical parameters associated with one emotion.
type EmotionParams struct {
	Key           models.Key `mapstructure:"-"`
	KeyName       string     `mapstructure:"key"`
	TempoMin      int        `mapstructure:"tempo_min"`
	TempoMax      int        `mapstructure:"tempo_max"`
	TimeSignature string     `mapstructure:"time_signature"`
	Contour       string     `mapstructure:"contour"`
}

// DefaultTempo is the tempo used when the oracle does not supply one: the
// midpoint of the emotion's range.
func (p EmotionParams) DefaultTempo() int {
	return (p.TempoMin + p.TempoMax) / 2
}

// EmotionTable maps normalized emotion labels to musical parameters. It is a
// read-only configuration value; the pipeline never mutates it.
type EmotionTable map[string]EmotionParams

// DefaultEmotionTable returns the built-in emotion table.
func DefaultEmotionTable() EmotionTable {
	return EmotionTable{
		"happy":   {KeyName: "C major", TempoMin: 100, TempoMax: 120, TimeSignature: "4/4", Contour: ContourAscending},
		"hopeful": {KeyName: "G major", TempoMin: 80, TempoMax: 100, TimeSignature: "4/4", Contour: ContourWavy},
		"sad":     {KeyName: "A minor", TempoMin: 60, TempoMax: 80, TimeSignature: "3/4", Contour: ContourDescending},
		"tense":   {KeyName: "D minor", TempoMin: 90, TempoMax: 110, TimeSignature: "4/4", Contour: ContourErratic},
		"calm":    {KeyName: "F major", TempoMin: 60, TempoMax: 80, TimeSignature: "6/8", Contour: ContourBalanced},
		"excited": {KeyName: "E major", TempoMin: 120, TempoMax: 140, TimeSignature: "4/4", Contour: ContourAscending},
		NeutralEmotion: {
			KeyName: "C major", TempoMin: 90, TempoMax: 110, TimeSignature: "4/4", Contour: ContourBalanced,
		},
	}
}

var validContours = map[string]bool{
	ContourAscending:  true,
	ContourDescending: true,
	ContourWavy:       true,
	ContourBalanced:   true,
	ContourErratic:    true,
}

// Validate checks every table entry and resolves its key. It fails fast so
// that a bad table is rejected before any pipeline run starts.
func (t EmotionTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("emotion table is empty")
	}
	if _, ok := t[NeutralEmotion]; !ok {
		return fmt.Errorf("emotion table is missing the %q entry", NeutralEmotion)
	}
	for emotion, params := range t {
		key, err := ParseKey(params.KeyName)
		if err != nil {
			return fmt.Errorf("emotion %q: %w", emotion, err)
		}
		if params.TempoMin < TempoMin || params.TempoMax > TempoMax || params.TempoMin > params.TempoMax {
			return fmt.Errorf("emotion %q: tempo range [%d,%d] outside [%d,%d]",
				emotion, params.TempoMin, params.TempoMax, TempoMin, TempoMax)
		}
		if _, _, err := ParseTimeSignature(params.TimeSignature); err != nil {
			return fmt.Errorf("emotion %q: %w", emotion, err)
		}
		if !validContours[params.Contour] {
			return fmt.Errorf("emotion %q: unknown contour %q", emotion, params.Contour)
		}
		params.Key = key
		t[emotion] = params
	}
	return nil
}

// Params returns the parameters for an emotion, falling back to the neutral
// entry for unmapped emotions.
func (t EmotionTable) Params(emotion string) EmotionParams {
	if params, ok := t[emotion]; ok {
		return params
	}
	return t[NeutralEmotion]
}

// TimeSignatures returns the sorted distinct time signatures the table uses.
func (t EmotionTable) TimeSignatures() []string {
	seen := make(map[string]bool)
	var signatures []string
	for _, params := range t {
		if !seen[params.TimeSignature] {
			seen[params.TimeSignature] = true
			signatures = append(signatures, params.TimeSignature)
		}
	}
	sort.Strings(signatures)
	return signatures
}

// Emotions returns the sorted list of emotions the table defines. This is the
// closed set the oracle is allowed to answer with.
func (t EmotionTable) Emotions() []string {
	emotions := make([]string, 0, len(t))
	for emotion := range t {
		emotions = append(emotions, emotion)
	}
	sort.Strings(emotions)
	return emotions
}
