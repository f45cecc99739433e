package analyzers

import (
	"github.com/montanaflynn/stats"
)

// TemporalMedianFilter smooths each frequency bin across time with a sliding
// median, removing single-frame noise spikes before peak extraction. Slices
// are modified in place; length is the filter window in frames and must be
// odd (even lengths are widened by one). A length below 3 is a no-op.
func TemporalMedianFilter(slices []*SpectrogramSlice, length int) {
	if length < 3 || len(slices) < 2 {
		return
	}
	if length%2 == 0 {
		length++
	}
	half := length / 2

	bins := len(slices[0].Magnitudes)
	series := make([]float64, len(slices))
	filtered := make([]float64, len(slices))

	for b := 0; b < bins; b++ {
		for t, s := range slices {
			series[t] = s.Magnitudes[b]
		}
		for t := range series {
			lo := max(t-half, 0)
			hi := min(t+half+1, len(series))
			m, err := stats.Median(series[lo:hi])
			if err != nil {
				m = series[t]
			}
			filtered[t] = m
		}
		for t, s := range slices {
			s.Magnitudes[b] = filtered[t]
		}
	}
}
