package piano

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestReferencePitch checks the A4 = 440 Hz anchor of the keymap.
func TestReferencePitch(t *testing.T) {
	assert.Equal(t, 440.0, Frequency(49))
	assert.Equal(t, "A4", Name(49))
}

// TestOctaveRatio checks that keys an octave apart keep an exact 2.0 ratio.
func TestOctaveRatio(t *testing.T) {
	for k := 1; k+12 <= KeyCount; k++ {
		ratio := Frequency(k+12) / Frequency(k)
		assert.Equal(t, 2.0, ratio, "keys %d and %d", k, k+12)
	}
}

// TestKeyNames spot-checks the name table at the keyboard's landmarks.
func TestKeyNames(t *testing.T) {
	tests := []struct {
		key  int
		name string
	}{
		{1, "A0"},
		{2, "A#0"},
		{3, "B0"},
		{4, "C1"},
		{40, "C4"}, // middle C
		{49, "A4"},
		{88, "C8"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, Name(tt.key))
	}
}

// TestKeymapMonotonic checks that frequencies strictly increase across keys.
func TestKeymapMonotonic(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, KeyCount)
	for i := 1; i < len(keys); i++ {
		assert.Greater(t, keys[i].Frequency, keys[i-1].Frequency)
	}
}

// TestNearestKey checks quantization by log-frequency distance.
func TestNearestKey(t *testing.T) {
	key, cents, ok := NearestKey(440.0)
	assert.True(t, ok)
	assert.Equal(t, 49, key)
	assert.InDelta(t, 0.0, cents, 1e-9)

	// slightly sharp A4
	key, cents, ok = NearestKey(442.0)
	assert.True(t, ok)
	assert.Equal(t, 49, key)
	assert.InDelta(t, 7.85, cents, 0.1)

	// slightly flat A#4
	key, cents, ok = NearestKey(464.0)
	assert.True(t, ok)
	assert.Equal(t, 50, key)
	assert.Less(t, cents, 0.0)
}

// TestNearestKeyBoundary checks behavior just around the geometric midpoint
// between two adjacent keys; at the midpoint itself the lower key wins.
func TestNearestKeyBoundary(t *testing.T) {
	midpoint := 440.0 * semitoneRatio(0.5)

	key, cents, ok := NearestKey(midpoint * (1 - 1e-9))
	assert.True(t, ok)
	assert.Equal(t, 49, key)
	assert.InDelta(t, 50.0, cents, 0.01)

	key, cents, ok = NearestKey(midpoint * (1 + 1e-9))
	assert.True(t, ok)
	assert.Equal(t, 50, key)
	assert.InDelta(t, -50.0, cents, 0.01)
}

// TestNearestKeyRange checks that frequencies off the keyboard are rejected.
func TestNearestKeyRange(t *testing.T) {
	tests := []float64{0, -10, 13.0, 20.0, 5000.0, 20000.0}
	for _, freq := range tests {
		_, _, ok := NearestKey(freq)
		assert.False(t, ok, "freq %.1f should be out of range", freq)
	}

	// the extremes themselves are in range
	for _, freq := range []float64{Frequency(1), Frequency(88)} {
		key, cents, ok := NearestKey(freq)
		assert.True(t, ok)
		assert.InDelta(t, 0.0, cents, 1e-6)
		assert.Contains(t, []int{1, 88}, key)
	}
}

// TestOutOfRangeLookups checks the guard paths of the table accessors.
func TestOutOfRangeLookups(t *testing.T) {
	assert.Equal(t, 0.0, Frequency(0))
	assert.Equal(t, 0.0, Frequency(89))
	assert.Equal(t, "", Name(0))
	assert.Equal(t, "", Name(89))
}

// semitoneRatio returns 2^(semitones/12) for test frequencies
func semitoneRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}
