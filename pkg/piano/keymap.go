package piano

import (
	"math"
)

// KeyCount is the number of keys on a standard piano
const KeyCount = 88

const (
	referenceKey       = 49    // A4
	referenceFrequency = 440.0 // Hz
)

// Key is one entry of the static keymap
type Key struct {
	Number    int     `json:"number"`
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency"`
}

var noteNames = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// semitoneRatios[r] = 2^(r/12), precomputed once so octave-apart keys keep an
// exact 2.0 frequency ratio.
var semitoneRatios [12]float64

var keymap [KeyCount]Key

func init() {
	for r := range semitoneRatios {
		semitoneRatios[r] = math.Pow(2, float64(r)/12)
	}
	for i := range keymap {
		n := i + 1
		keymap[i] = Key{Number: n, Name: keyName(n), Frequency: keyFrequency(n)}
	}
}

// keyFrequency computes equal-tempered pitch relative to A4 = 440 Hz
func keyFrequency(n int) float64 {
	d := n - referenceKey
	oct := int(math.Floor(float64(d) / 12))
	rem := d - 12*oct
	return referenceFrequency * math.Exp2(float64(oct)) * semitoneRatios[rem]
}

// keyName renders names like A0, C#4, C8. Octaves increment at C.
func keyName(n int) string {
	name := noteNames[(n-1)%12]
	octave := (n + 8) / 12
	return name + string(rune('0'+octave))
}

// Frequency returns the equal-tempered frequency of a key, or 0 when the key
// is outside 1..88
func Frequency(n int) float64 {
	if n < 1 || n > KeyCount {
		return 0
	}
	return keymap[n-1].Frequency
}

// Name returns the note name of a key, or "" when outside 1..88
func Name(n int) string {
	if n < 1 || n > KeyCount {
		return ""
	}
	return keymap[n-1].Name
}

// Keys returns a copy of the full 88-key table
func Keys() []Key {
	out := make([]Key, KeyCount)
	copy(out, keymap[:])
	return out
}

// NearestKey quantizes a frequency to the nearest piano key by log-frequency
// distance, honoring equal-tempered spacing. It returns the key number and
// the signed cents deviation from that key's exact pitch, with cents in
// (-50, +50]: an exact geometric midpoint resolves to the lower key. ok is
// false when the frequency falls outside the piano's range.
func NearestKey(freq float64) (key int, cents float64, ok bool) {
	if freq <= 0 {
		return 0, 0, false
	}

	exact := float64(referenceKey) + 12*math.Log2(freq/referenceFrequency)
	n := math.Floor(exact)
	if exact-n > 0.5 {
		n++
	}

	key = int(n)
	if key < 1 || key > KeyCount {
		return 0, 0, false
	}
	cents = (exact - n) * 100
	return key, cents, true
}
