// ABOUTME: Playback format negotiation and volume scale conversion
// ABOUTME: Maps requested formats to device-supported ones
package output

import (
	"math"

	"github.com/kb1p/WaveGen/pkg/audio"
)

// Supported reports whether the playback backend accepts f unchanged:
// u8, s16le or f32le at any rate and channel count
func Supported(f audio.Format) bool {
	switch {
	case f.BitDepth == 8 && f.Kind == audio.UnsignedInt:
		return true
	case f.BitDepth == 16 && f.Kind == audio.SignedInt && f.Order == audio.LittleEndian:
		return true
	case f.BitDepth == 32 && f.Kind == audio.Float && f.Order == audio.LittleEndian:
		return true
	}
	return false
}

// NearestFormat returns f if the backend supports it, otherwise s16le at
// the same rate and channel count
func NearestFormat(f audio.Format) audio.Format {
	if Supported(f) {
		return f
	}
	f.BitDepth = 16
	f.Kind = audio.SignedInt
	f.Order = audio.LittleEndian
	return f
}

var ln100 = math.Log(100)

// PerceivedToLinear converts a logarithmic volume slider position in [0, 1]
// to linear gain
func PerceivedToLinear(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return min(-math.Log(1-v)/ln100, 1)
}

// LinearToPerceived is the inverse of PerceivedToLinear
func LinearToPerceived(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return 1 - math.Exp(-v*ln100)
}
