package analyzers

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bniss/aposynthese/pkg/audio"
)

func sineFrame(t *testing.T, freq float64, sampleRate, windowSize int) *Frame {
	t.Helper()
	samples := make([]float64, windowSize)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return &Frame{Index: 0, StartTime: 0, Samples: samples}
}

func TestAnalyzeSine(t *testing.T) {
	const (
		sampleRate = 44100
		windowSize = 4096
	)
	sa, err := NewSpectralAnalyzer(sampleRate, windowSize, "hann")
	require.NoError(t, err)

	frame := sineFrame(t, 440.0, sampleRate, windowSize)
	slice := sa.Analyze(frame)
	require.Len(t, slice.Magnitudes, windowSize/2+1)

	// the strongest bin sits within one bin width of the tone
	best := 0
	for i, m := range slice.Magnitudes {
		if m > slice.Magnitudes[best] {
			best = i
		}
	}
	freqs := sa.BinFrequencies()
	assert.InDelta(t, 440.0, freqs[best], sa.FrequencyResolution())

	// the input frame is left untouched
	assert.Equal(t, sineFrame(t, 440.0, sampleRate, windowSize).Samples, frame.Samples)
}

func TestAnalyzeSilence(t *testing.T) {
	sa, err := NewSpectralAnalyzer(44100, 1024, "hann")
	require.NoError(t, err)

	slice := sa.Analyze(&Frame{Samples: make([]float64, 1024)})
	for _, m := range slice.Magnitudes {
		assert.InDelta(t, 0.0, m, 1e-9)
	}
}

func TestBinFrequencies(t *testing.T) {
	sa, err := NewSpectralAnalyzer(44100, 4096, "")
	require.NoError(t, err)

	freqs := sa.BinFrequencies()
	require.Len(t, freqs, 2049)
	assert.Equal(t, 0.0, freqs[0])
	assert.InDelta(t, 22050.0, freqs[len(freqs)-1], 1e-9)
	for i := 1; i < len(freqs); i++ {
		assert.Greater(t, freqs[i], freqs[i-1])
	}
	assert.InDelta(t, 44100.0/4096.0, sa.FrequencyResolution(), 1e-9)
}

func TestWindowFunctions(t *testing.T) {
	for _, fn := range []string{"", "hann", "hamming", "blackman", "rectangular"} {
		_, err := NewSpectralAnalyzer(44100, 1024, fn)
		assert.NoError(t, err, "window %q", fn)
	}

	_, err := NewSpectralAnalyzer(44100, 1024, "kaiser")
	var window *audio.InvalidWindowError
	require.True(t, errors.As(err, &window))
}

func TestAnalyzerValidation(t *testing.T) {
	_, err := NewSpectralAnalyzer(0, 1024, "hann")
	var input *audio.InvalidInputError
	assert.True(t, errors.As(err, &input))

	_, err = NewSpectralAnalyzer(44100, 0, "hann")
	var window *audio.InvalidWindowError
	assert.True(t, errors.As(err, &window))
}
