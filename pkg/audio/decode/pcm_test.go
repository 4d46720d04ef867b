// ABOUTME: Tests for PCM decoder
// ABOUTME: Round-trip tests against the encoder for every supported format
package decode

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/audio/encode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleFormats = []string{
	"s8", "u8",
	"s16le", "s16be", "u16le", "u16be",
	"s32le", "s32be", "u32le", "u32be",
	"f32le", "f32be",
}

// quantizationStep returns the amplitude distance between adjacent codes
func quantizationStep(f audio.Format) float64 {
	if f.Kind == audio.Float {
		return 0
	}
	levels := math.Exp2(float64(f.BitDepth)) - 1
	if f.Kind == audio.SignedInt {
		levels = math.Exp2(float64(f.BitDepth-1)) - 1
		return 1 / levels
	}
	return 2 / levels
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, name := range sampleFormats {
		t.Run(name, func(t *testing.T) {
			f, err := audio.ParseSampleFormat(name, audio.DefaultFormat)
			require.NoError(t, err)

			enc, err := encode.New(f)
			require.NoError(t, err)
			dec, err := NewPCM(f)
			require.NoError(t, err)

			step := quantizationStep(f)
			buf := make([]byte, f.BytesPerSample())

			values := []float64{-1, -0.5, 0, 0.5, 1}
			for range 1000 {
				values = append(values, rng.Float64()*2-1)
			}

			for _, x := range values {
				enc(buf, x)
				got := dec(buf)
				if f.Kind == audio.Float {
					assert.Equal(t, float64(float32(x)), got, "x=%v", x)
					continue
				}
				assert.InDelta(t, x, got, step, "x=%v", x)
			}
		})
	}
}

func TestDecodeSilence(t *testing.T) {
	tests := []struct {
		format string
		data   []byte
	}{
		{"s8", []byte{0x00}},
		{"s16le", []byte{0x00, 0x00}},
		{"f32be", []byte{0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		f, err := audio.ParseSampleFormat(tt.format, audio.DefaultFormat)
		require.NoError(t, err)
		dec, err := NewPCM(f)
		require.NoError(t, err)

		assert.Zero(t, dec(tt.data), tt.format)
	}
}

func TestNewPCMErrors(t *testing.T) {
	f, err := audio.ParseSampleFormat("s24le", audio.DefaultFormat)
	require.NoError(t, err)

	_, err = NewPCM(f)
	assert.True(t, errors.Is(err, audio.ErrUnsupportedFormat))

	_, err = NewPCM(audio.Format{})
	assert.True(t, errors.Is(err, audio.ErrInvalidFormat))
}

func TestFramesAndPeak(t *testing.T) {
	f := audio.Format{SampleRate: 8000, Channels: 2, BitDepth: 16, Kind: audio.SignedInt}
	dec, err := NewPCM(f)
	require.NoError(t, err)

	// Two stereo frames: (0.5, 0.5) and (-1, -1), plus a trailing half frame
	data := []byte{
		0x00, 0x40, 0x00, 0x40,
		0x01, 0x80, 0x01, 0x80,
		0xFF, 0x7F,
	}

	frames := Frames(dec, f, data)
	require.Len(t, frames, 2)
	assert.InDelta(t, 0.5, frames[0], 1.0/32767)
	assert.Equal(t, -1.0, frames[1])

	assert.Equal(t, 1.0, Peak(dec, f, data))
	assert.Equal(t, 1.0, Peak(dec, f, data[:8]))
}
