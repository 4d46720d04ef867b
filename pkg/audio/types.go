// ABOUTME: Audio type definitions
// ABOUTME: Defines the sample format descriptor and its validation
package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// SampleKind is the numeric representation of one channel sample
type SampleKind int

const (
	SignedInt SampleKind = iota
	UnsignedInt
	Float
)

func (k SampleKind) String() string {
	switch k {
	case SignedInt:
		return "signed"
	case UnsignedInt:
		return "unsigned"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("SampleKind(%d)", int(k))
	}
}

// ByteOrder is the endianness of multi-byte samples
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little-endian"
	case BigEndian:
		return "big-endian"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

// Format describes the wire encoding of a PCM stream
type Format struct {
	SampleRate uint32
	Channels   uint32
	BitDepth   uint32
	Kind       SampleKind
	Order      ByteOrder
}

// DefaultFormat is CD-rate mono signed 16-bit little-endian
var DefaultFormat = Format{
	SampleRate: 44100,
	Channels:   1,
	BitDepth:   16,
	Kind:       SignedInt,
	Order:      LittleEndian,
}

// Validate checks every field of the format.
// Bit depths other than 8, 16 and 32 (24 included) are reported as
// ErrUnsupportedFormat; every other defect is ErrInvalidFormat.
func (f Format) Validate() error {
	if f.SampleRate == 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidFormat)
	}
	if f.Channels == 0 {
		return fmt.Errorf("%w: channel count must be at least 1", ErrInvalidFormat)
	}
	if f.Kind < SignedInt || f.Kind > Float {
		return fmt.Errorf("%w: unknown sample kind %d", ErrInvalidFormat, int(f.Kind))
	}
	if f.Order != LittleEndian && f.Order != BigEndian {
		return fmt.Errorf("%w: unknown byte order %d", ErrInvalidFormat, int(f.Order))
	}

	switch f.BitDepth {
	case 8, 16, 32:
	case 0:
		return fmt.Errorf("%w: bit depth must be positive", ErrInvalidFormat)
	default:
		return fmt.Errorf("%w: %d-bit samples (supported: 8, 16, 32)", ErrUnsupportedFormat, f.BitDepth)
	}

	if f.Kind == Float && f.BitDepth != 32 {
		return fmt.Errorf("%w: float samples require 32 bits, got %d", ErrInvalidFormat, f.BitDepth)
	}

	return nil
}

// BytesPerSample returns the size of one channel sample
func (f Format) BytesPerSample() int {
	return int(f.BitDepth / 8)
}

// FrameSize returns the size of one frame (one sample per channel)
func (f Format) FrameSize() int {
	return int(f.Channels) * f.BytesPerSample()
}

// BytesPerSecond returns the byte rate of the stream
func (f Format) BytesPerSecond() int {
	return int(f.SampleRate) * f.FrameSize()
}

// SampleFormat returns the short name of the sample encoding, e.g. "s16le"
func (f Format) SampleFormat() string {
	var prefix string
	switch f.Kind {
	case SignedInt:
		prefix = "s"
	case UnsignedInt:
		prefix = "u"
	case Float:
		prefix = "f"
	default:
		prefix = "?"
	}

	name := fmt.Sprintf("%s%d", prefix, f.BitDepth)
	if f.BitDepth == 8 {
		return name
	}
	if f.Order == BigEndian {
		return name + "be"
	}
	return name + "le"
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %s", f.SampleFormat(), f.SampleRate, channelName(f.Channels))
}

// ParseSampleFormat parses a short sample encoding name ("u8", "s16le",
// "s32be", "f32le", ...) into the kind, depth and byte order of f.
// Rate and channel count are left untouched.
func ParseSampleFormat(name string, f Format) (Format, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return f, fmt.Errorf("%w: empty sample format", ErrInvalidFormat)
	}

	switch s[0] {
	case 's':
		f.Kind = SignedInt
	case 'u':
		f.Kind = UnsignedInt
	case 'f':
		f.Kind = Float
	default:
		return f, fmt.Errorf("%w: unknown sample format %q", ErrInvalidFormat, name)
	}
	s = s[1:]

	f.Order = LittleEndian
	switch {
	case strings.HasSuffix(s, "le"):
		s = strings.TrimSuffix(s, "le")
	case strings.HasSuffix(s, "be"):
		f.Order = BigEndian
		s = strings.TrimSuffix(s, "be")
	}

	bits, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return f, fmt.Errorf("%w: unknown sample format %q", ErrInvalidFormat, name)
	}
	f.BitDepth = uint32(bits)

	return f, nil
}

func channelName(channels uint32) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
