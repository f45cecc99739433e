package analyzers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFreqs maps bin i to i Hz so peak positions read directly as frequencies
func testFreqs(n int) []float64 {
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = float64(i)
	}
	return freqs
}

// addPeak raises one bin above its neighbors so it registers as a local maximum
func addPeak(mags []float64, bin int, magnitude float64) {
	mags[bin-1] = magnitude * 0.3
	mags[bin] = magnitude
	mags[bin+1] = magnitude * 0.3
}

func TestExtractHarmonicCollapse(t *testing.T) {
	const bins = 600
	pe := NewPeakExtractor(testFreqs(bins), DefaultPeakExtractorParams())

	// a 220 Hz fundamental with its first overtone at 440 Hz
	mags := make([]float64, bins)
	addPeak(mags, 220, 1.0)
	addPeak(mags, 440, 0.6)

	peaks := pe.Extract(&SpectrogramSlice{Magnitudes: mags})
	require.Len(t, peaks, 1)
	assert.Equal(t, 220, peaks[0].Bin)
	assert.InDelta(t, 1.0, peaks[0].RelMagnitude, 1e-9)
}

func TestExtractWeakFundamentalKept(t *testing.T) {
	const bins = 600
	pe := NewPeakExtractor(testFreqs(bins), DefaultPeakExtractorParams())

	// the lower peak is too weak to claim 440 Hz as its overtone
	mags := make([]float64, bins)
	addPeak(mags, 220, 0.3)
	addPeak(mags, 440, 1.0)

	peaks := pe.Extract(&SpectrogramSlice{Magnitudes: mags})
	require.Len(t, peaks, 2)
	assert.Equal(t, 440, peaks[0].Bin)
	assert.Equal(t, 220, peaks[1].Bin)
}

func TestExtractThreshold(t *testing.T) {
	const bins = 400
	pe := NewPeakExtractor(testFreqs(bins), DefaultPeakExtractorParams())

	mags := make([]float64, bins)
	addPeak(mags, 100, 1.0)
	addPeak(mags, 333, 0.05) // below the 0.1 relative floor

	peaks := pe.Extract(&SpectrogramSlice{Magnitudes: mags})
	require.Len(t, peaks, 1)
	assert.Equal(t, 100, peaks[0].Bin)
}

func TestExtractOrdering(t *testing.T) {
	const bins = 400
	pe := NewPeakExtractor(testFreqs(bins), DefaultPeakExtractorParams())

	// non-harmonic pair; the stronger peak comes first
	mags := make([]float64, bins)
	addPeak(mags, 100, 0.5)
	addPeak(mags, 250, 0.9)

	peaks := pe.Extract(&SpectrogramSlice{Magnitudes: mags})
	require.Len(t, peaks, 2)
	assert.Equal(t, 250, peaks[0].Bin)
	assert.Equal(t, 100, peaks[1].Bin)
}

func TestExtractMaxPeaks(t *testing.T) {
	const bins = 800
	params := DefaultPeakExtractorParams()
	params.MaxPeaks = 2
	pe := NewPeakExtractor(testFreqs(bins), params)

	mags := make([]float64, bins)
	addPeak(mags, 101, 1.0)
	addPeak(mags, 257, 0.9)
	addPeak(mags, 421, 0.8)

	peaks := pe.Extract(&SpectrogramSlice{Magnitudes: mags})
	assert.Len(t, peaks, 2)
}

func TestExtractSilence(t *testing.T) {
	pe := NewPeakExtractor(testFreqs(100), DefaultPeakExtractorParams())
	assert.Nil(t, pe.Extract(&SpectrogramSlice{Magnitudes: make([]float64, 100)}))
}

// TestExtractHarmonicCollapseSpectral drives a real FFT: at 4096/44100 the
// bins are 10.77 Hz wide, so without sub-bin refinement a 220 Hz fundamental
// reads as 215.33 Hz and its octave as 441.43 Hz, a ratio far enough from 2
// to dodge the tolerance and leak a ghost peak.
func TestExtractHarmonicCollapseSpectral(t *testing.T) {
	const (
		sampleRate = 44100
		windowSize = 4096
	)
	sa, err := NewSpectralAnalyzer(sampleRate, windowSize, "hann")
	require.NoError(t, err)

	samples := make([]float64, windowSize)
	for i := range samples {
		ts := float64(i) / sampleRate
		samples[i] = math.Sin(2*math.Pi*220*ts) + 0.5*math.Sin(2*math.Pi*440*ts)
	}
	slice := sa.Analyze(&Frame{Samples: samples})

	pe := NewPeakExtractor(sa.BinFrequencies(), DefaultPeakExtractorParams())

	// both tones survive as candidates
	candidates := pe.Candidates(slice)
	require.Len(t, candidates, 2)
	assert.InDelta(t, 220.0, candidates[0].Frequency, 2.0)
	assert.InDelta(t, 440.0, candidates[1].Frequency, 2.0)

	// the octave collapses onto its fundamental
	peaks := pe.Extract(slice)
	require.Len(t, peaks, 1)
	assert.InDelta(t, 220.0, peaks[0].Frequency, 2.0)
}

// TestCandidatesUncapped checks Candidates bypasses both the collapse and the
// MaxPeaks cap while Collapse applies them.
func TestCandidatesUncapped(t *testing.T) {
	const bins = 600
	params := DefaultPeakExtractorParams()
	params.MaxPeaks = 1
	pe := NewPeakExtractor(testFreqs(bins), params)

	mags := make([]float64, bins)
	addPeak(mags, 220, 1.0)
	addPeak(mags, 440, 0.6)
	addPeak(mags, 333, 0.4)

	slice := &SpectrogramSlice{Magnitudes: mags}

	candidates := pe.Candidates(slice)
	require.Len(t, candidates, 3)

	collapsed := pe.Collapse(candidates)
	require.Len(t, collapsed, 1)
	assert.Equal(t, 220, collapsed[0].Bin)

	// Collapse reads the candidate list without reordering it
	assert.Equal(t, 220, candidates[0].Bin)
	assert.Len(t, candidates, 3)
	assert.Equal(t, collapsed, pe.Extract(slice))
}
