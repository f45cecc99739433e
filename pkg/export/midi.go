package export

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/bniss/aposynthese/pkg/notes"
)

const (
	ticksPerQuarter = 960
	tempoBPM        = 120.0

	// key 1 (A0) is MIDI note 21
	midiNoteOffset = 20
)

// WriteMIDI renders finalized note events as a single-track standard MIDI
// file for offline score-like consumers. Velocity follows event confidence.
func WriteMIDI(path string, events []notes.NoteEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("no note events to export")
	}

	type timedMessage struct {
		tick uint32
		// note-offs sort before note-ons at the same tick
		off bool
		msg midi.Message
	}

	res := smf.MetricTicks(ticksPerQuarter)
	msgs := make([]timedMessage, 0, 2*len(events))
	for _, e := range events {
		key := uint8(e.Key + midiNoteOffset)
		msgs = append(msgs,
			timedMessage{
				tick: secondsToTicks(e.Onset),
				msg:  midi.NoteOn(0, key, velocity(e.Confidence)),
			},
			timedMessage{
				tick: secondsToTicks(e.Offset),
				off:  true,
				msg:  midi.NoteOff(0, key),
			},
		)
	}

	sort.Slice(msgs, func(a, b int) bool {
		if msgs[a].tick != msgs[b].tick {
			return msgs[a].tick < msgs[b].tick
		}
		return msgs[a].off && !msgs[b].off
	})

	s := smf.New()
	s.TimeFormat = res

	var track smf.Track
	track.Add(0, smf.MetaTempo(tempoBPM))
	var last uint32
	for _, m := range msgs {
		track.Add(m.tick-last, m.msg)
		last = m.tick
	}
	track.Close(0)

	s.Add(track)

	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("writing MIDI file: %w", err)
	}
	return nil
}

func secondsToTicks(seconds float64) uint32 {
	quarters := seconds * tempoBPM / 60
	return uint32(quarters*ticksPerQuarter + 0.5)
}

func velocity(confidence float64) uint8 {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return uint8(1 + confidence*126)
}
