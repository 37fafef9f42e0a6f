package melody

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
)

// Duration and velocity constants for the deterministic fallback.
const (
	phraseEndStretch = 1.5 // last syllable of a phrase holds longer
	baseVelocity     = 72
	phraseAccent     = 8 // added on phrase-initial syllables
)

// ascendingSteps is the cyclic step pattern for ascending/descending contours.
var ascendingSteps = []int{1, 1, 2}

// ChunkState threads melodic continuity from one chunk into the next: the
// last scale degree and pitch emitted, plus the running phase of the wavy
// contour. The zero value is the start-of-melody state.
type ChunkState struct {
	Started    bool
	Degree     int
	StepIndex  int
	WavyPhase  int
	LastPitch  models.Pitch
	HasPitch   bool
}

// ContourEngine is the deterministic fallback generator. Given a chunk it
// always produces exactly one note per syllable, reproducibly: the only
// randomness is seeded from a hash of the chunk's lyric text.
type ContourEngine struct {
	key     models.Key
	contour string
	vrange  theory.VocalRange
}

// NewContourEngine creates an engine for one pipeline run's key and contour.
func NewContourEngine(key models.Key, contour string, vrange theory.VocalRange) *ContourEngine {
	return &ContourEngine{key: key, contour: contour, vrange: vrange}
}

// Generate produces the chunk's notes and the continuity state for the next
// chunk. Identical input (chunk, signature, state) yields identical output.
func (e *ContourEngine) Generate(chunk *models.Chunk, timeSignature string, state ChunkState) ([]models.NoteEvent, ChunkState) {
	rng := rand.New(rand.NewSource(chunkSeed(chunk.Text())))
	base := theory.BaseBeatsPerSyllable(timeSignature)

	notes := make([]models.NoteEvent, 0, chunk.Syllables())
	for _, phrase := range chunk.Phrases {
		for s := 0; s < phrase.SyllableCount; s++ {
			degree := e.nextDegree(&state, rng)

			pitch := theory.ClipToRange(
				theory.PitchForDegree(e.key, degree, theory.MiddleOctave), e.vrange)

			duration := base
			if s == phrase.SyllableCount-1 {
				duration = base * phraseEndStretch
			}
			velocity := baseVelocity
			if s == 0 {
				velocity = clampVelocity(baseVelocity + phraseAccent)
			}

			notes = append(notes, models.NoteEvent{
				Pitch:         pitch,
				DurationBeats: duration,
				Velocity:      velocity,
			})

			state.Degree = degree
			state.LastPitch = pitch
			state.HasPitch = true
			state.Started = true
		}
	}

	return notes, state
}

// nextDegree advances the contour by one syllable.
func (e *ContourEngine) nextDegree(state *ChunkState, rng *rand.Rand) int {
	switch e.contour {
	case theory.ContourAscending:
		if !state.Started {
			return 0
		}
		step := ascendingSteps[state.StepIndex%len(ascendingSteps)]
		state.StepIndex++
		return minDegree(state.Degree+step, theory.ScaleDegrees-1)

	case theory.ContourDescending:
		if !state.Started {
			return theory.ScaleDegrees - 1
		}
		step := ascendingSteps[state.StepIndex%len(ascendingSteps)]
		state.StepIndex++
		return maxDegree(state.Degree-step, 0)

	case theory.ContourWavy:
		const amplitude, phaseIncrement = 2.0, math.Pi / 3
		degree := int(math.Round(3 + amplitude*math.Sin(float64(state.WavyPhase)*phaseIncrement)))
		state.WavyPhase++
		return clampDegree(degree)

	case theory.ContourErratic:
		return rng.Intn(theory.ScaleDegrees)

	default: // balanced
		if !state.Started {
			return 3
		}
		step := rng.Intn(3) - 1 // -1, 0 or +1
		degree := state.Degree + step
		// Stay around the middle of the scale.
		if degree < 1 {
			degree = 1
		}
		if degree > 5 {
			degree = 5
		}
		return degree
	}
}

// chunkSeed hashes the chunk text with FNV-64a for the seeded contours.
func chunkSeed(text string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return int64(h.Sum64())
}

func clampDegree(d int) int {
	if d < 0 {
		return 0
	}
	if d > theory.ScaleDegrees-1 {
		return theory.ScaleDegrees - 1
	}
	return d
}

func minDegree(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxDegree(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}
