// ABOUTME: PCM sample encoder
// ABOUTME: Encodes amplitudes in [-1, 1] to 8/16/32-bit integer or float PCM
package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kb1p/WaveGen/pkg/audio"
)

const (
	maxInt8   = 127
	maxUint8  = 255
	maxInt16  = 32767
	maxUint16 = 65535
	maxInt32  = 2147483647
	maxUint32 = 4294967295
)

type encoding struct {
	bits  uint32
	kind  audio.SampleKind
	order audio.ByteOrder
}

// 8-bit encodings are registered under LittleEndian only; byte order
// does not apply to them.
var encoders = map[encoding]SampleEncoder{
	{8, audio.SignedInt, audio.LittleEndian}:   encodeS8,
	{8, audio.UnsignedInt, audio.LittleEndian}: encodeU8,

	{16, audio.SignedInt, audio.LittleEndian}:   encodeS16LE,
	{16, audio.SignedInt, audio.BigEndian}:      encodeS16BE,
	{16, audio.UnsignedInt, audio.LittleEndian}: encodeU16LE,
	{16, audio.UnsignedInt, audio.BigEndian}:    encodeU16BE,

	{32, audio.SignedInt, audio.LittleEndian}:   encodeS32LE,
	{32, audio.SignedInt, audio.BigEndian}:      encodeS32BE,
	{32, audio.UnsignedInt, audio.LittleEndian}: encodeU32LE,
	{32, audio.UnsignedInt, audio.BigEndian}:    encodeU32BE,
	{32, audio.Float, audio.LittleEndian}:       encodeF32LE,
	{32, audio.Float, audio.BigEndian}:          encodeF32BE,
}

// New resolves the encoder for a format. The lookup happens once; the
// returned function carries no format branches.
func New(format audio.Format) (SampleEncoder, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	key := encoding{bits: format.BitDepth, kind: format.Kind, order: format.Order}
	if format.BitDepth == 8 {
		key.order = audio.LittleEndian
	}

	enc, ok := encoders[key]
	if !ok {
		return nil, fmt.Errorf("%w: no encoder for %s", audio.ErrUnsupportedFormat, format.SampleFormat())
	}
	return enc, nil
}

// Rounding is half away from zero.

func signed(x float64, full float64) float64 {
	return math.Round(x * full)
}

func unsigned(x float64, full float64) float64 {
	return math.Round((1.0 + x) / 2.0 * full)
}

func encodeS8(dst []byte, x float64) {
	dst[0] = byte(int8(signed(x, maxInt8)))
}

func encodeU8(dst []byte, x float64) {
	dst[0] = uint8(unsigned(x, maxUint8))
}

func encodeS16LE(dst []byte, x float64) {
	binary.LittleEndian.PutUint16(dst, uint16(int16(signed(x, maxInt16))))
}

func encodeS16BE(dst []byte, x float64) {
	binary.BigEndian.PutUint16(dst, uint16(int16(signed(x, maxInt16))))
}

func encodeU16LE(dst []byte, x float64) {
	binary.LittleEndian.PutUint16(dst, uint16(unsigned(x, maxUint16)))
}

func encodeU16BE(dst []byte, x float64) {
	binary.BigEndian.PutUint16(dst, uint16(unsigned(x, maxUint16)))
}

func encodeS32LE(dst []byte, x float64) {
	binary.LittleEndian.PutUint32(dst, uint32(int32(signed(x, maxInt32))))
}

func encodeS32BE(dst []byte, x float64) {
	binary.BigEndian.PutUint32(dst, uint32(int32(signed(x, maxInt32))))
}

func encodeU32LE(dst []byte, x float64) {
	binary.LittleEndian.PutUint32(dst, uint32(unsigned(x, maxUint32)))
}

func encodeU32BE(dst []byte, x float64) {
	binary.BigEndian.PutUint32(dst, uint32(unsigned(x, maxUint32)))
}

func encodeF32LE(dst []byte, x float64) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(x)))
}

func encodeF32BE(dst []byte, x float64) {
	binary.BigEndian.PutUint32(dst, math.Float32bits(float32(x)))
}
