// Package melody is the heart of the pipeline: it partitions an emotion
// profile into chunks, synthesizes one note per syllable for each chunk
// (oracle first, deterministic contour fallback second) and assembles the
// final melody under the strict note-count invariant.
package melody

import "github.com/Conceptual-Machines/melodia-api/internal/models"

// DefaultMaxNotesPerChunk bounds how many notes one oracle call may request.
const DefaultMaxNotesPerChunk = 30

// PlanChunks greedily packs phrases into chunks of at most maxNotes syllables.
// Phrases are never split: a single phrase over the limit becomes its own
// oversized chunk. The partition is a pure function of the syllable counts.
func PlanChunks(phrases []models.LyricPhrase, maxNotes int) []models.Chunk {
	var chunks []models.Chunk
	var current []models.LyricPhrase
	currentSyllables := 0
	offset := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, models.Chunk{
			Index:          len(chunks),
			Phrases:        current,
			SyllableOffset: offset,
			MaxNotes:       maxNotes,
		})
		offset += currentSyllables
		current = nil
		currentSyllables = 0
	}

	for _, phrase := range phrases {
		if currentSyllables+phrase.SyllableCount > maxNotes && len(current) > 0 {
			flush()
		}
		current = append(current, phrase)
		currentSyllables += phrase.SyllableCount
		// An oversized phrase closes its chunk immediately.
		if phrase.SyllableCount > maxNotes {
			flush()
		}
	}
	flush()

	return chunks
}
