package piano

import (
	"math"

	"github.com/bniss/aposynthese/pkg/audio/analyzers"
)

// PitchCandidate is a spectral peak resolved to a piano key
type PitchCandidate struct {
	Key        int     `json:"key"`
	Name       string  `json:"name"`
	Frequency  float64 `json:"frequency"`
	Cents      float64 `json:"cents"`
	Confidence float64 `json:"confidence"`
}

// NoteMapper quantizes peaks to keys and scores them. Confidence grows with
// the peak's relative magnitude and shrinks with its cents deviation from the
// exact equal-tempered pitch.
type NoteMapper struct {
	centsPenalty float64
}

// NewNoteMapper creates a mapper. centsPenalty in [0, 1] sets how much a
// half-semitone deviation reduces confidence; 0.5 halves it.
func NewNoteMapper(centsPenalty float64) *NoteMapper {
	if centsPenalty < 0 {
		centsPenalty = 0
	}
	if centsPenalty > 1 {
		centsPenalty = 1
	}
	return &NoteMapper{centsPenalty: centsPenalty}
}

// Map resolves one peak to a pitch candidate. Peaks outside the piano's
// frequency range are discarded (ok = false).
func (m *NoteMapper) Map(p analyzers.Peak) (PitchCandidate, bool) {
	key, cents, ok := NearestKey(p.Frequency)
	if !ok {
		return PitchCandidate{}, false
	}

	confidence := p.RelMagnitude * (1 - m.centsPenalty*math.Abs(cents)/50)
	confidence = math.Max(0, math.Min(1, confidence))

	return PitchCandidate{
		Key:        key,
		Name:       Name(key),
		Frequency:  p.Frequency,
		Cents:      cents,
		Confidence: confidence,
	}, true
}

// MapSlice resolves a frame's peak list to at most one candidate per key,
// keeping the highest-confidence candidate on collisions.
func (m *NoteMapper) MapSlice(peaks []analyzers.Peak) map[int]PitchCandidate {
	if len(peaks) == 0 {
		return nil
	}
	candidates := make(map[int]PitchCandidate, len(peaks))
	for _, p := range peaks {
		c, ok := m.Map(p)
		if !ok {
			continue
		}
		if prev, exists := candidates[c.Key]; exists && prev.Confidence >= c.Confidence {
			continue
		}
		candidates[c.Key] = c
	}
	return candidates
}
