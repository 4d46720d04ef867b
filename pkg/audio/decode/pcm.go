// ABOUTME: PCM sample decoder
// ABOUTME: Decodes 8/16/32-bit integer or float PCM to amplitudes in [-1, 1]
package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kb1p/WaveGen/pkg/audio"
)

// SampleDecoder reads one channel sample from src
type SampleDecoder func(src []byte) float64

// NewPCM resolves the decoder for a format
func NewPCM(format audio.Format) (SampleDecoder, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	var order binary.ByteOrder = binary.LittleEndian
	if format.Order == audio.BigEndian {
		order = binary.BigEndian
	}

	switch format.BitDepth {
	case 8:
		if format.Kind == audio.SignedInt {
			return func(src []byte) float64 {
				return float64(int8(src[0])) / math.MaxInt8
			}, nil
		}
		return func(src []byte) float64 {
			return float64(src[0])/math.MaxUint8*2 - 1
		}, nil
	case 16:
		if format.Kind == audio.SignedInt {
			return func(src []byte) float64 {
				return float64(int16(order.Uint16(src))) / math.MaxInt16
			}, nil
		}
		return func(src []byte) float64 {
			return float64(order.Uint16(src))/math.MaxUint16*2 - 1
		}, nil
	case 32:
		switch format.Kind {
		case audio.SignedInt:
			return func(src []byte) float64 {
				return float64(int32(order.Uint32(src))) / math.MaxInt32
			}, nil
		case audio.UnsignedInt:
			return func(src []byte) float64 {
				return float64(order.Uint32(src))/math.MaxUint32*2 - 1
			}, nil
		default:
			return func(src []byte) float64 {
				return float64(math.Float32frombits(order.Uint32(src)))
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: no decoder for %s", audio.ErrUnsupportedFormat, format.SampleFormat())
}

// Frames decodes the first channel of every whole frame in data
func Frames(dec SampleDecoder, format audio.Format, data []byte) []float64 {
	frameSize := format.FrameSize()
	out := make([]float64, 0, len(data)/frameSize)
	for off := 0; off+frameSize <= len(data); off += frameSize {
		out = append(out, dec(data[off:]))
	}
	return out
}

// Peak returns the largest absolute amplitude over every channel sample
// in data
func Peak(dec SampleDecoder, format audio.Format, data []byte) float64 {
	step := format.BytesPerSample()
	peak := 0.0
	for off := 0; off+step <= len(data); off += step {
		if v := math.Abs(dec(data[off:])); v > peak {
			peak = v
		}
	}
	return peak
}
