package audio

import (
	"time"
)

// Waveform holds a mono PCM signal. Samples are normalized to [-1, 1] and
// immutable for the lifetime of a pipeline run.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// New validates the raw signal and wraps it in a Waveform
func New(samples []float64, sampleRate int) (*Waveform, error) {
	if len(samples) == 0 {
		return nil, &InvalidInputError{Reason: "waveform has zero samples"}
	}
	if sampleRate <= 0 {
		return nil, &InvalidInputError{Reason: "sample rate must be positive"}
	}
	return &Waveform{Samples: samples, SampleRate: sampleRate}, nil
}

// Seconds returns the signal duration in seconds
func (w *Waveform) Seconds() float64 {
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Duration returns the signal duration
func (w *Waveform) Duration() time.Duration {
	return time.Duration(w.Seconds() * float64(time.Second))
}

// Truncate returns a waveform bounded to max. The receiver is returned
// unchanged when max is zero or not shorter than the signal.
func (w *Waveform) Truncate(max time.Duration) *Waveform {
	if max <= 0 {
		return w
	}
	n := int(max.Seconds() * float64(w.SampleRate))
	if n <= 0 || n >= len(w.Samples) {
		return w
	}
	return &Waveform{Samples: w.Samples[:n], SampleRate: w.SampleRate}
}

// DownmixStereo averages interleaved stereo samples into a mono signal
func DownmixStereo(interleaved []float64) []float64 {
	mono := make([]float64, len(interleaved)/2)
	for i := range mono {
		mono[i] = (interleaved[2*i] + interleaved[2*i+1]) / 2
	}
	return mono
}
