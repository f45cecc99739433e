package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bniss/aposynthese/pkg/piano"
)

func testParams() TrackerParams {
	return TrackerParams{
		ActivationThreshold: 0.5,
		OnsetRun:            2,
		ReleaseGrace:        2,
	}
}

// feed advances the tracker over a per-frame confidence series for one key.
// A negative confidence means the key is absent from that frame.
func feed(t *NoteTracker, key int, series []float64) {
	for i, conf := range series {
		frameTime := float64(i) * 0.1
		candidates := map[int]piano.PitchCandidate{}
		if conf >= 0 {
			candidates[key] = piano.PitchCandidate{Key: key, Confidence: conf}
		}
		t.Advance(frameTime, candidates)
	}
}

func TestTrackerSustainedNote(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	feed(tracker, 49, []float64{0.8, 0.8, 0.8, 0.8})
	tracker.Flush(0.4)

	events := tracker.Events()
	require.Len(t, events, 1)
	assert.Equal(t, 49, events[0].Key)
	assert.Equal(t, "A4", events[0].Name)
	assert.InDelta(t, 0.0, events[0].Onset, 1e-9)
	assert.InDelta(t, 0.4, events[0].Offset, 1e-9)
	assert.InDelta(t, 0.8, events[0].Confidence, 1e-9)
}

// TestTrackerOnsetDebounce checks that a single qualifying frame never opens
// a note when the onset run requires two.
func TestTrackerOnsetDebounce(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	feed(tracker, 49, []float64{0.8, -1, 0.8, -1, 0.8, -1})
	tracker.Flush(0.6)

	assert.Empty(t, tracker.Events())
}

// TestTrackerOnsetTime checks the onset timestamp is the first qualifying
// frame of the run, not the frame that completed it.
func TestTrackerOnsetTime(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	feed(tracker, 40, []float64{-1, -1, 0.7, 0.9, 0.9})
	tracker.Flush(0.5)

	events := tracker.Events()
	require.Len(t, events, 1)
	assert.InDelta(t, 0.2, events[0].Onset, 1e-9)
	assert.InDelta(t, 0.9, events[0].Confidence, 1e-9)
}

// TestTrackerGraceRejoin checks that a dropout shorter than the release grace
// keeps the same event open.
func TestTrackerGraceRejoin(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	feed(tracker, 49, []float64{0.8, 0.8, -1, 0.8, 0.8})
	tracker.Flush(0.5)

	events := tracker.Events()
	require.Len(t, events, 1)
	assert.InDelta(t, 0.0, events[0].Onset, 1e-9)
	assert.InDelta(t, 0.5, events[0].Offset, 1e-9)
}

// TestTrackerReonset checks that a dropout past the grace closes the note and
// a later detection opens a second event.
func TestTrackerReonset(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	feed(tracker, 49, []float64{0.8, 0.8, -1, -1, 0.8, 0.8, 0.8})
	tracker.Flush(0.7)

	events := tracker.Events()
	require.Len(t, events, 2)
	assert.InDelta(t, 0.0, events[0].Onset, 1e-9)
	assert.InDelta(t, 0.2, events[0].Offset, 1e-9)
	assert.InDelta(t, 0.4, events[1].Onset, 1e-9)
	assert.InDelta(t, 0.7, events[1].Offset, 1e-9)
}

// TestTrackerInclusiveThreshold checks confidence exactly at the activation
// threshold counts as evidence.
func TestTrackerInclusiveThreshold(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	feed(tracker, 49, []float64{0.5, 0.5, 0.5})
	tracker.Flush(0.3)

	assert.Len(t, tracker.Events(), 1)

	tracker = NewNoteTracker(testParams())
	feed(tracker, 49, []float64{0.49, 0.49, 0.49})
	tracker.Flush(0.3)

	assert.Empty(t, tracker.Events())
}

func TestTrackerSilence(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	for i := 0; i < 20; i++ {
		tracker.Advance(float64(i)*0.1, nil)
	}
	tracker.Flush(2.0)

	assert.Empty(t, tracker.Events())
}

// TestTrackerImmediateRelease checks that a grace of one closes the note on
// the first absent frame.
func TestTrackerImmediateRelease(t *testing.T) {
	params := testParams()
	params.ReleaseGrace = 1
	tracker := NewNoteTracker(params)
	feed(tracker, 49, []float64{0.8, 0.8, -1, -1})
	tracker.Flush(0.4)

	events := tracker.Events()
	require.Len(t, events, 1)
	assert.InDelta(t, 0.2, events[0].Offset, 1e-9)
}

func TestTrackerStates(t *testing.T) {
	tracker := NewNoteTracker(testParams())

	assert.Equal(t, StateInactive, tracker.State(49))

	tracker.Advance(0.0, map[int]piano.PitchCandidate{49: {Key: 49, Confidence: 0.8}})
	assert.Equal(t, StateInactive, tracker.State(49))

	tracker.Advance(0.1, map[int]piano.PitchCandidate{49: {Key: 49, Confidence: 0.8}})
	assert.Equal(t, StateActive, tracker.State(49))

	tracker.Advance(0.2, nil)
	assert.Equal(t, StateReleasing, tracker.State(49))

	tracker.Advance(0.3, nil)
	assert.Equal(t, StateInactive, tracker.State(49))

	// out-of-range keys read as inactive
	assert.Equal(t, StateInactive, tracker.State(0))
	assert.Equal(t, StateInactive, tracker.State(89))
}

func TestTrackerEventOrdering(t *testing.T) {
	tracker := NewNoteTracker(testParams())

	both := map[int]piano.PitchCandidate{
		40: {Key: 40, Confidence: 0.9},
		49: {Key: 49, Confidence: 0.9},
	}
	tracker.Advance(0.0, both)
	tracker.Advance(0.1, both)
	tracker.Flush(0.2)

	events := tracker.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 40, events[0].Key)
	assert.Equal(t, 49, events[1].Key)
}

func TestEmitterSnapshots(t *testing.T) {
	tracker := NewNoteTracker(testParams())
	emitter := NewPianoFrameEmitter(tracker)

	series := []map[int]piano.PitchCandidate{
		{49: {Key: 49, Confidence: 0.8}},
		{49: {Key: 49, Confidence: 0.9}},
		{49: {Key: 49, Confidence: 0.9}},
		nil,
	}
	for i, candidates := range series {
		tracker.Advance(float64(i)*0.1, candidates)
		emitter.Emit(i, float64(i)*0.1)
	}

	frames := emitter.Frames()
	require.Len(t, frames, 4)

	// not yet active during the debounce frame
	assert.Empty(t, frames[0].Keys)

	require.Len(t, frames[1].Keys, 1)
	assert.Equal(t, 49, frames[1].Keys[0].Key)
	assert.InDelta(t, 0.9, frames[1].Keys[0].Intensity, 1e-9)

	// still sounding while releasing within the grace
	require.Len(t, frames[3].Keys, 1)

	assert.Equal(t, 2, frames[2].Index)
	assert.InDelta(t, 0.2, frames[2].Time, 1e-9)
}

func TestEventDuration(t *testing.T) {
	e := NoteEvent{Onset: 0.25, Offset: 1.0}
	assert.InDelta(t, 0.75, e.Duration(), 1e-9)
}
