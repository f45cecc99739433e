package analyzers

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/bniss/aposynthese/pkg/audio"
	"github.com/bniss/aposynthese/pkg/logging"
)

// SpectrogramSlice holds the magnitude spectrum of one frame. Bin i maps to
// frequency i * sampleRate / windowSize; the mapping is identical for every
// slice of a run.
type SpectrogramSlice struct {
	Index      int       `json:"index"`
	Time       float64   `json:"time"`
	Magnitudes []float64 `json:"magnitudes"`
}

// SpectralAnalyzer computes magnitude spectra from framed windows. A
// windowing taper suppresses spectral leakage before the FFT; only
// non-negative frequencies up to Nyquist are retained.
type SpectralAnalyzer struct {
	sampleRate int
	windowSize int
	taper      []float64
	freqs      []float64
	logger     logging.Logger
}

// NewSpectralAnalyzer creates an analyzer for the given window configuration.
// Supported window functions: hann (default), hamming, blackman, rectangular.
func NewSpectralAnalyzer(sampleRate, windowSize int, windowFunction string) (*SpectralAnalyzer, error) {
	if sampleRate <= 0 {
		return nil, &audio.InvalidInputError{Reason: "sample rate must be positive"}
	}
	if windowSize <= 0 {
		return nil, &audio.InvalidWindowError{WindowSize: windowSize, Reason: "window size must be positive"}
	}

	taper, err := makeTaper(windowSize, windowFunction)
	if err != nil {
		return nil, err
	}

	bins := windowSize/2 + 1
	freqs := make([]float64, bins)
	for i := range freqs {
		freqs[i] = float64(i) * float64(sampleRate) / float64(windowSize)
	}

	return &SpectralAnalyzer{
		sampleRate: sampleRate,
		windowSize: windowSize,
		taper:      taper,
		freqs:      freqs,
		logger: logging.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"sample_rate": sampleRate,
			"window_size": windowSize,
		}),
	}, nil
}

func makeTaper(windowSize int, windowFunction string) ([]float64, error) {
	switch windowFunction {
	case "", "hann":
		return window.Hann(windowSize), nil
	case "hamming":
		return window.Hamming(windowSize), nil
	case "blackman":
		return window.Blackman(windowSize), nil
	case "rectangular":
		return window.Rectangular(windowSize), nil
	}
	return nil, &audio.InvalidWindowError{WindowSize: windowSize, Reason: "unknown window function " + windowFunction}
}

// Analyze computes the magnitude spectrum of one frame. The frame's samples
// are left untouched.
func (sa *SpectralAnalyzer) Analyze(frame *Frame) *SpectrogramSlice {
	tapered := make([]float64, len(frame.Samples))
	for i, s := range frame.Samples {
		tapered[i] = s * sa.taper[i]
	}

	spectrum := fft.FFTReal(tapered)

	bins := len(sa.freqs)
	magnitudes := make([]float64, bins)
	for i := 0; i < bins; i++ {
		magnitudes[i] = cmplx.Abs(spectrum[i])
	}

	return &SpectrogramSlice{
		Index:      frame.Index,
		Time:       frame.StartTime,
		Magnitudes: magnitudes,
	}
}

// BinFrequencies returns the frequency (Hz) of every spectrum bin
func (sa *SpectralAnalyzer) BinFrequencies() []float64 {
	return sa.freqs
}

// FrequencyResolution returns the bin spacing in Hz
func (sa *SpectralAnalyzer) FrequencyResolution() float64 {
	return float64(sa.sampleRate) / float64(sa.windowSize)
}
