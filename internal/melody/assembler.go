package melody

import (
	"fmt"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
)

// InvariantViolation reports a note-count mismatch. It signals a programming
// defect: the fallback path is constructed so this can never happen, so it is
// surfaced loudly instead of being corrected silently.
type InvariantViolation struct {
	Scope    string
	Expected int
	Actual   int
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("note count invariant violated (%s): expected %d notes, got %d",
		e.Scope, e.Expected, e.Actual)
}

// Assemble concatenates the chunk results in order, enforces the global
// note-count invariant and stamps the run's key, tempo and time signature.
func Assemble(profile *models.EmotionProfile, key models.Key, chunkNotes [][]models.NoteEvent) (*models.MelodyStructure, error) {
	total := 0
	for _, notes := range chunkNotes {
		total += len(notes)
	}

	expected := profile.TotalSyllables()
	if total != expected {
		return nil, &InvariantViolation{Scope: "assembly", Expected: expected, Actual: total}
	}

	merged := make([]models.NoteEvent, 0, total)
	for _, notes := range chunkNotes {
		merged = append(merged, notes...)
	}

	return &models.MelodyStructure{
		Key:           key,
		Tempo:         profile.Tempo,
		TimeSignature: profile.TimeSignature,
		Notes:         merged,
	}, nil
}
