package analyzers

import (
	"github.com/bniss/aposynthese/pkg/audio"
)

// Frame is one fixed-length window of the waveform
type Frame struct {
	Index     int
	StartTime float64 // seconds from the start of the waveform
	Samples   []float64
}

// Framer slices a waveform into overlapping fixed-length windows. A hop
// smaller than the window size trades frequency resolution for temporal
// resolution; both are configuration, never hard-coded. The sequence is lazy
// and restartable via Reset. The last window is zero-padded so boundary notes
// stay visible.
type Framer struct {
	wave       *audio.Waveform
	windowSize int
	hopSize    int
	pos        int
	index      int
}

// NewFramer validates the windowing configuration and returns a framer
func NewFramer(wave *audio.Waveform, windowSize, hopSize int) (*Framer, error) {
	if wave == nil || len(wave.Samples) == 0 {
		return nil, &audio.InvalidInputError{Reason: "waveform has zero samples"}
	}
	if windowSize <= 0 {
		return nil, &audio.InvalidWindowError{WindowSize: windowSize, HopSize: hopSize, Reason: "window size must be positive"}
	}
	if hopSize <= 0 {
		return nil, &audio.InvalidWindowError{WindowSize: windowSize, HopSize: hopSize, Reason: "hop size must be positive"}
	}
	if hopSize > windowSize {
		return nil, &audio.InvalidWindowError{WindowSize: windowSize, HopSize: hopSize, Reason: "hop size exceeds window size"}
	}
	return &Framer{wave: wave, windowSize: windowSize, hopSize: hopSize}, nil
}

// Count returns the total number of frames the framer will produce
func (f *Framer) Count() int {
	return (len(f.wave.Samples) + f.hopSize - 1) / f.hopSize
}

// Next returns the next frame, or false when the sequence is exhausted
func (f *Framer) Next() (*Frame, bool) {
	if f.pos >= len(f.wave.Samples) {
		return nil, false
	}

	// remainder past the signal end stays zero-padded
	samples := make([]float64, f.windowSize)
	copy(samples, f.wave.Samples[f.pos:])

	frame := &Frame{
		Index:     f.index,
		StartTime: float64(f.index*f.hopSize) / float64(f.wave.SampleRate),
		Samples:   samples,
	}

	f.pos += f.hopSize
	f.index++
	return frame, true
}

// Reset rewinds the framer to the start of the waveform
func (f *Framer) Reset() {
	f.pos = 0
	f.index = 0
}
