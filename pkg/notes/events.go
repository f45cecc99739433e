package notes

// NoteEvent is one finalized note: a key that sounded from Onset to Offset.
// Confidence is the peak candidate confidence observed over its lifetime.
// Events are immutable once the offset is set.
type NoteEvent struct {
	Key        int     `json:"key"`
	Name       string  `json:"name"`
	Onset      float64 `json:"onset"`
	Offset     float64 `json:"offset"`
	Confidence float64 `json:"confidence"`
}

// Duration returns the event length in seconds
func (e NoteEvent) Duration() float64 {
	return e.Offset - e.Onset
}
