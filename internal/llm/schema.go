package llm

const (
	// Velocity constraints
	velocityMin     = 1
	velocityMax     = 127
	velocityDefault = 64

	// Duration constraints
	durationBeatsMin = 0.01

	// Tempo constraints (BPM)
	tempoMin = 40
	tempoMax = 200
)

// GetEmotionProfileSchema returns the JSON schema for the emotion/rhythm
// classification output: one emotion from the allowed set, a tempo, a time
// signature and one phrase entry per input line.
// Note: OpenAI requires additionalProperties: false and all properties listed
// in 'required', so optional fields are expressed as nullable types.
func GetEmotionProfileSchema(allowedEmotions []string, allowedTimeSignatures []string) map[string]any {
	emotions := make([]any, 0, len(allowedEmotions))
	for _, e := range allowedEmotions {
		emotions = append(emotions, e)
	}
	signatures := make([]any, 0, len(allowedTimeSignatures))
	for _, s := range allowedTimeSignatures {
		signatures = append(signatures, s)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"emotion": map[string]any{
				"type": "string",
				"enum": emotions,
			},
			"tempo": map[string]any{
				"type":    "integer",
				"minimum": tempoMin,
				"maximum": tempoMax,
			},
			"timeSignature": map[string]any{
				"type": "string",
				"enum": signatures,
			},
			"phrases": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"line":      map[string]any{"type": "string"},
						"syllables": map[string]any{"type": "integer", "minimum": 1},
					},
					"required":             []string{"line", "syllables"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"emotion", "tempo", "timeSignature", "phrases"},
		"additionalProperties": false,
	}
}

// GetNoteListSchema returns the JSON schema for a chunk's note sequence: pitch
// names with octave (e.g. "G4"), positive durations in beats and an optional
// velocity that defaults when null.
func GetNoteListSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"notes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"pitch": map[string]any{
							"type":        "string",
							"description": "Pitch name with octave, e.g. \"G4\" or \"F#3\".",
						},
						"durationBeats": map[string]any{
							"type":    "number",
							"minimum": durationBeatsMin,
						},
						"velocity": map[string]any{
							"type":        []any{"integer", "null"},
							"minimum":     velocityMin,
							"maximum":     velocityMax,
							"description": "MIDI velocity. Use null for the default.",
						},
					},
					"required":             []string{"pitch", "durationBeats", "velocity"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"notes"},
		"additionalProperties": false,
	}
}

// DefaultVelocity returns the velocity applied when the oracle omits one.
func DefaultVelocity() int {
	return velocityDefault
}
