package analyzers

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Peak is a dominant-frequency candidate extracted from one slice
type Peak struct {
	Bin          int     `json:"bin"`
	Frequency    float64 `json:"frequency"`
	Magnitude    float64 `json:"magnitude"`
	RelMagnitude float64 `json:"rel_magnitude"` // relative to the slice maximum
}

// PeakExtractorParams tunes peak picking and harmonic resolution
type PeakExtractorParams struct {
	// MagnitudeThreshold is the fraction of the slice maximum a bin must
	// exceed to count as a peak. Keeps the noise floor of quiet passages out.
	MagnitudeThreshold float64

	// HarmonicTolerance is the relative frequency error allowed when testing
	// whether a peak sits on an integer multiple of a lower peak.
	HarmonicTolerance float64

	// FundamentalRatio is the minimum magnitude a lower peak needs, relative
	// to the candidate overtone, to claim it as its harmonic.
	FundamentalRatio float64

	// MaxHarmonic is the highest integer multiple checked.
	MaxHarmonic int

	// MaxPeaks caps the number of peaks returned per slice. Zero means no cap.
	MaxPeaks int
}

// DefaultPeakExtractorParams mirror the analysis defaults
func DefaultPeakExtractorParams() PeakExtractorParams {
	return PeakExtractorParams{
		MagnitudeThreshold: 0.1,
		HarmonicTolerance:  0.015,
		FundamentalRatio:   0.5,
		MaxHarmonic:        6,
		MaxPeaks:           8,
	}
}

// PeakExtractor finds dominant frequencies in a magnitude slice and collapses
// harmonic overtones onto their fundamental. Resolution is a pure function of
// the slice's peak list plus the static tolerance configuration.
type PeakExtractor struct {
	freqs  []float64
	params PeakExtractorParams
}

// NewPeakExtractor creates an extractor over the given bin-frequency mapping
func NewPeakExtractor(freqs []float64, params PeakExtractorParams) *PeakExtractor {
	if params.MaxHarmonic < 2 {
		params.MaxHarmonic = 2
	}
	return &PeakExtractor{freqs: freqs, params: params}
}

// Extract returns the slice's peaks in descending magnitude order. Silent or
// sub-threshold slices yield an empty list.
func (pe *PeakExtractor) Extract(slice *SpectrogramSlice) []Peak {
	return pe.Collapse(pe.Candidates(slice))
}

// Candidates returns every local maximum above the relative magnitude floor in
// descending magnitude order, before harmonic collapsing and the MaxPeaks cap.
func (pe *PeakExtractor) Candidates(slice *SpectrogramSlice) []Peak {
	mags := slice.Magnitudes
	if len(mags) < 3 {
		return nil
	}

	maxMag := floats.Max(mags)
	if maxMag <= 0 {
		return nil
	}
	floor := pe.params.MagnitudeThreshold * maxMag

	// local maxima above the relative threshold
	candidates := make([]Peak, 0, 16)
	for i := 1; i < len(mags)-1; i++ {
		if mags[i] <= mags[i-1] || mags[i] <= mags[i+1] {
			continue
		}
		if mags[i] < floor {
			continue
		}
		candidates = append(candidates, Peak{
			Bin:          i,
			Frequency:    pe.refineFrequency(i, mags),
			Magnitude:    mags[i],
			RelMagnitude: mags[i] / maxMag,
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].Magnitude > candidates[b].Magnitude
	})
	return candidates
}

// Collapse drops candidates sitting on an integer multiple of a lower,
// sufficiently strong candidate and applies the MaxPeaks cap. The input is
// left untouched.
func (pe *PeakExtractor) Collapse(candidates []Peak) []Peak {
	if len(candidates) == 0 {
		return nil
	}
	peaks := make([]Peak, 0, len(candidates))
	for _, p := range candidates {
		if pe.isOvertone(p, candidates) {
			continue
		}
		peaks = append(peaks, p)
		if pe.params.MaxPeaks > 0 && len(peaks) >= pe.params.MaxPeaks {
			break
		}
	}
	return peaks
}

// refineFrequency interpolates the true peak position between bin centers by
// fitting a parabola through the magnitudes around the maximum. A bin center
// alone can sit half a bin wide of the pitch, which at low frequencies is more
// than the harmonic tolerance.
func (pe *PeakExtractor) refineFrequency(i int, mags []float64) float64 {
	if len(pe.freqs) < 2 {
		return pe.freqs[i]
	}
	a, b, c := mags[i-1], mags[i], mags[i+1]
	denom := a - 2*b + c
	if denom == 0 {
		return pe.freqs[i]
	}
	delta := 0.5 * (a - c) / denom
	if delta < -0.5 {
		delta = -0.5
	} else if delta > 0.5 {
		delta = 0.5
	}
	binWidth := pe.freqs[1] - pe.freqs[0]
	return pe.freqs[i] + delta*binWidth
}

// isOvertone reports whether p sits on an integer multiple of a lower,
// sufficiently strong peak. Such a peak is an overtone of that fundamental
// and is discarded to avoid octave misclassification.
func (pe *PeakExtractor) isOvertone(p Peak, candidates []Peak) bool {
	for _, q := range candidates {
		if q.Frequency <= 0 || q.Frequency >= p.Frequency {
			continue
		}
		if q.Magnitude < pe.params.FundamentalRatio*p.Magnitude {
			continue
		}
		for k := 2; k <= pe.params.MaxHarmonic; k++ {
			harmonic := float64(k) * q.Frequency
			if harmonic > p.Frequency*(1+pe.params.HarmonicTolerance) {
				break
			}
			if diff := p.Frequency - harmonic; diff <= pe.params.HarmonicTolerance*p.Frequency && diff >= -pe.params.HarmonicTolerance*p.Frequency {
				return true
			}
		}
	}
	return false
}
