package notes

// ActiveKey is one sounding key with its normalized intensity
type ActiveKey struct {
	Key       int     `json:"key"`
	Intensity float64 `json:"intensity"`
}

// FrameRecord is the per-frame contract consumed by the external rendering
// collaborator: the set of keys sounding at one frame's start time.
type FrameRecord struct {
	Index int         `json:"index"`
	Time  float64     `json:"time"`
	Keys  []ActiveKey `json:"keys,omitempty"`
}

// PianoFrameEmitter snapshots the tracker's 88 automatons after each frame
// into an ordered, time-indexed sequence of frame records.
type PianoFrameEmitter struct {
	tracker *NoteTracker
	frames  []FrameRecord
}

// NewPianoFrameEmitter creates an emitter bound to a tracker
func NewPianoFrameEmitter(tracker *NoteTracker) *PianoFrameEmitter {
	return &PianoFrameEmitter{tracker: tracker}
}

// Emit records and returns the frame-aligned active-key set. Call after the
// tracker has advanced past the frame.
func (e *PianoFrameEmitter) Emit(index int, frameTime float64) FrameRecord {
	rec := FrameRecord{
		Index: index,
		Time:  frameTime,
		Keys:  e.tracker.ActiveKeys(),
	}
	e.frames = append(e.frames, rec)
	return rec
}

// Frames returns the ordered sequence of emitted records
func (e *PianoFrameEmitter) Frames() []FrameRecord {
	return e.frames
}
