// Package notation converts an assembled melody into Standard MIDI Files:
// a tempo/conductor track plus a single monophonic vocal track carrying the
// notes and lyric meta events.
package notation

import (
	"fmt"
	"io"
	"log"

	"github.com/Conceptual-Machines/melodia-api/internal/models"
	"github.com/Conceptual-Machines/melodia-api/internal/theory"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 480
	vocalChannel    = 0
	vocalProgram    = 52 // GM "Choir Aahs"
)

// ExportMIDI writes the melody as an SMF1 file. Each phrase contributes one
// lyric meta event on its first note so players can display the text.
func ExportMIDI(melody *models.MelodyStructure, phrases []models.LyricPhrase, w io.Writer) error {
	if melody == nil || melody.NoteCount() == 0 {
		return fmt.Errorf("no melody to export")
	}

	file := smf.NewSMF1()
	file.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	file.Add(conductorTrack(melody))

	vocal, err := vocalTrack(melody, phrases)
	if err != nil {
		return err
	}
	file.Add(vocal)

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write midi file: %w", err)
	}

	log.Printf("🎹 MIDI EXPORTED: %d notes, tempo=%d, signature=%s",
		melody.NoteCount(), melody.Tempo, melody.TimeSignature)
	return nil
}

// conductorTrack carries tempo, time signature and the key marker.
func conductorTrack(melody *models.MelodyStructure) smf.Track {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName("Tempo"))})
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTempo(float64(melody.Tempo)))})

	if num, den, err := theory.ParseTimeSignature(melody.TimeSignature); err == nil {
		track = append(track, smf.Event{
			Delta:   0,
			Message: smf.Message(smf.MetaTimeSig(uint8(num), uint8(den), 24, 8)),
		})
	}

	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaMarker(theory.KeyName(melody.Key)))})
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

// vocalTrack renders the monophonic note sequence with lyric meta events.
func vocalTrack(melody *models.MelodyStructure, phrases []models.LyricPhrase) (smf.Track, error) {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName("Vocal"))})
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(midi.ProgramChange(vocalChannel, vocalProgram))})

	// Map each phrase's first syllable index to its text.
	lyricAt := make(map[int]string, len(phrases))
	offset := 0
	for _, phrase := range phrases {
		lyricAt[offset] = phrase.Text
		offset += phrase.SyllableCount
	}
	if offset != 0 && offset != melody.NoteCount() {
		return nil, fmt.Errorf("phrase syllables (%d) do not match note count (%d)", offset, melody.NoteCount())
	}

	for i, note := range melody.Notes {
		key := theory.MidiNumber(note.Pitch)
		if key < 0 || key > 127 {
			return nil, fmt.Errorf("note %d: pitch %s out of MIDI range", i, theory.FormatPitch(note.Pitch))
		}

		if text, ok := lyricAt[i]; ok {
			track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaLyric(text))})
		}

		track = append(track, smf.Event{
			Delta:   0,
			Message: smf.Message(midi.NoteOn(vocalChannel, uint8(key), uint8(note.Velocity))),
		})
		track = append(track, smf.Event{
			Delta:   beatsToTicks(note.DurationBeats),
			Message: smf.Message(midi.NoteOff(vocalChannel, uint8(key))),
		})
	}

	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track, nil
}

func beatsToTicks(beats float64) uint32 {
	ticks := beats * ticksPerQuarter
	if ticks < 1 {
		ticks = 1
	}
	return uint32(ticks + 0.5)
}
