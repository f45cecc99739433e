package notes

import (
	"math"
	"sort"

	"github.com/bniss/aposynthese/pkg/logging"
	"github.com/bniss/aposynthese/pkg/piano"
)

// State is the lifecycle state of one key's automaton
type State int

const (
	StateInactive State = iota
	StateActive
	StateReleasing
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateReleasing:
		return "releasing"
	default:
		return "inactive"
	}
}

// TrackerParams tunes the hysteresis that turns flickering per-frame
// detections into coherent note events
type TrackerParams struct {
	// ActivationThreshold is the minimum candidate confidence for a frame to
	// count as evidence. The comparison is inclusive (>=).
	ActivationThreshold float64

	// OnsetRun is the number of consecutive qualifying frames required before
	// a key activates. Debounces single-frame noise spikes.
	OnsetRun int

	// ReleaseGrace is the number of consecutive absent frames tolerated
	// before an active note closes. Bridges transient dropouts caused by
	// harmonic interference from other notes.
	ReleaseGrace int
}

// keyState is one key's automaton. The zero value is a fresh INACTIVE key.
type keyState struct {
	state      State
	runLength  int
	runOnset   float64 // time of the first qualifying frame in the run
	runConf    float64 // best confidence seen during the run
	graceCount int
	releaseAt  float64 // time RELEASING was entered; becomes the offset
	confidence float64 // best confidence over the open event
	intensity  float64 // most recent qualifying confidence
}

// NoteTracker drives 88 independent per-key state machines across frames and
// collects finalized note events. Advancing is inherently sequential in time;
// callers must present frames in order.
type NoteTracker struct {
	params TrackerParams
	keys   [piano.KeyCount + 1]keyState // 1-based
	events []NoteEvent
	logger logging.Logger
}

// NewNoteTracker creates a tracker; onset run and release grace are clamped
// to at least one frame.
func NewNoteTracker(params TrackerParams) *NoteTracker {
	if params.OnsetRun < 1 {
		params.OnsetRun = 1
	}
	if params.ReleaseGrace < 1 {
		params.ReleaseGrace = 1
	}
	return &NoteTracker{
		params: params,
		logger: logging.WithFields(logging.Fields{"component": "note_tracker"}),
	}
}

// Advance feeds one frame's candidates (keyed by key number) to every
// automaton. A frame with no candidates is a legitimate silence signal.
func (t *NoteTracker) Advance(frameTime float64, candidates map[int]piano.PitchCandidate) {
	for k := 1; k <= piano.KeyCount; k++ {
		cand, present := candidates[k]
		qualified := present && cand.Confidence >= t.params.ActivationThreshold
		t.advanceKey(k, frameTime, cand, qualified)
	}
}

func (t *NoteTracker) advanceKey(k int, frameTime float64, cand piano.PitchCandidate, qualified bool) {
	ks := &t.keys[k]

	switch ks.state {
	case StateInactive:
		if !qualified {
			ks.runLength = 0
			return
		}
		if ks.runLength == 0 {
			ks.runOnset = frameTime
			ks.runConf = 0
		}
		ks.runLength++
		ks.runConf = math.Max(ks.runConf, cand.Confidence)
		if ks.runLength >= t.params.OnsetRun {
			ks.state = StateActive
			ks.confidence = ks.runConf
			ks.intensity = cand.Confidence
			t.logger.Debug("note onset", logging.Fields{
				"key":   k,
				"name":  piano.Name(k),
				"onset": ks.runOnset,
			})
		}

	case StateActive:
		if qualified {
			ks.confidence = math.Max(ks.confidence, cand.Confidence)
			ks.intensity = cand.Confidence
			return
		}
		ks.state = StateReleasing
		ks.releaseAt = frameTime
		ks.graceCount = 1
		if ks.graceCount >= t.params.ReleaseGrace {
			t.closeEvent(k)
		}

	case StateReleasing:
		if qualified {
			// same sustained note, no new event
			ks.state = StateActive
			ks.graceCount = 0
			ks.confidence = math.Max(ks.confidence, cand.Confidence)
			ks.intensity = cand.Confidence
			return
		}
		ks.graceCount++
		if ks.graceCount >= t.params.ReleaseGrace {
			t.closeEvent(k)
		}
	}
}

// closeEvent finalizes the open note on key k and resets its automaton
func (t *NoteTracker) closeEvent(k int) {
	ks := &t.keys[k]
	t.events = append(t.events, NoteEvent{
		Key:        k,
		Name:       piano.Name(k),
		Onset:      ks.runOnset,
		Offset:     ks.releaseAt,
		Confidence: ks.confidence,
	})
	t.logger.Debug("note offset", logging.Fields{
		"key":    k,
		"name":   piano.Name(k),
		"onset":  ks.runOnset,
		"offset": ks.releaseAt,
	})
	*ks = keyState{}
}

// State returns the current state of one key
func (t *NoteTracker) State(k int) State {
	if k < 1 || k > piano.KeyCount {
		return StateInactive
	}
	return t.keys[k].state
}

// ActiveKeys returns every key currently sounding (ACTIVE or RELEASING) with
// its intensity, in ascending key order.
func (t *NoteTracker) ActiveKeys() []ActiveKey {
	var out []ActiveKey
	for k := 1; k <= piano.KeyCount; k++ {
		ks := &t.keys[k]
		if ks.state == StateActive || ks.state == StateReleasing {
			out = append(out, ActiveKey{Key: k, Intensity: ks.intensity})
		}
	}
	return out
}

// Flush closes every open note at the end of the signal. ACTIVE notes end at
// endTime; RELEASING notes end where their release began.
func (t *NoteTracker) Flush(endTime float64) {
	for k := 1; k <= piano.KeyCount; k++ {
		ks := &t.keys[k]
		switch ks.state {
		case StateActive:
			ks.releaseAt = endTime
			t.closeEvent(k)
		case StateReleasing:
			t.closeEvent(k)
		}
	}
}

// Events returns all finalized events ordered by onset, then key
func (t *NoteTracker) Events() []NoteEvent {
	out := make([]NoteEvent, len(t.events))
	copy(out, t.events)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Onset != out[b].Onset {
			return out[a].Onset < out[b].Onset
		}
		return out[a].Key < out[b].Key
	})
	return out
}
