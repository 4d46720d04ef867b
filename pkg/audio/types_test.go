// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation, sizes and sample format parsing
package audio

import (
	"errors"
	"testing"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr error
	}{
		{"default", DefaultFormat, nil},
		{"u8 stereo", Format{SampleRate: 8000, Channels: 2, BitDepth: 8, Kind: UnsignedInt}, nil},
		{"s32be", Format{SampleRate: 48000, Channels: 6, BitDepth: 32, Kind: SignedInt, Order: BigEndian}, nil},
		{"f32le", Format{SampleRate: 96000, Channels: 1, BitDepth: 32, Kind: Float}, nil},
		{"zero rate", Format{Channels: 1, BitDepth: 16}, ErrInvalidFormat},
		{"zero channels", Format{SampleRate: 44100, BitDepth: 16}, ErrInvalidFormat},
		{"zero depth", Format{SampleRate: 44100, Channels: 1}, ErrInvalidFormat},
		{"24 bit", Format{SampleRate: 44100, Channels: 1, BitDepth: 24}, ErrUnsupportedFormat},
		{"12 bit", Format{SampleRate: 44100, Channels: 1, BitDepth: 12}, ErrUnsupportedFormat},
		{"float 16", Format{SampleRate: 44100, Channels: 1, BitDepth: 16, Kind: Float}, ErrInvalidFormat},
		{"bad kind", Format{SampleRate: 44100, Channels: 1, BitDepth: 16, Kind: SampleKind(7)}, ErrInvalidFormat},
		{"bad order", Format{SampleRate: 44100, Channels: 1, BitDepth: 16, Order: ByteOrder(3)}, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatSizes(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

	if got := f.BytesPerSample(); got != 2 {
		t.Errorf("BytesPerSample() = %d, want 2", got)
	}
	if got := f.FrameSize(); got != 4 {
		t.Errorf("FrameSize() = %d, want 4", got)
	}
	if got := f.BytesPerSecond(); got != 176400 {
		t.Errorf("BytesPerSecond() = %d, want 176400", got)
	}
}

func TestParseSampleFormat(t *testing.T) {
	tests := []struct {
		input string
		bits  uint32
		kind  SampleKind
		order ByteOrder
	}{
		{"u8", 8, UnsignedInt, LittleEndian},
		{"s8", 8, SignedInt, LittleEndian},
		{"s16le", 16, SignedInt, LittleEndian},
		{"S16BE", 16, SignedInt, BigEndian},
		{"u16be", 16, UnsignedInt, BigEndian},
		{"s32", 32, SignedInt, LittleEndian},
		{"f32be", 32, Float, BigEndian},
		{"s24le", 24, SignedInt, LittleEndian},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseSampleFormat(tt.input, DefaultFormat)
			if err != nil {
				t.Fatalf("ParseSampleFormat(%q) unexpected error = %v", tt.input, err)
			}
			if f.BitDepth != tt.bits || f.Kind != tt.kind || f.Order != tt.order {
				t.Errorf("ParseSampleFormat(%q) = %+v", tt.input, f)
			}
			if f.SampleRate != DefaultFormat.SampleRate || f.Channels != DefaultFormat.Channels {
				t.Errorf("ParseSampleFormat(%q) changed rate or channels: %+v", tt.input, f)
			}
		})
	}
}

func TestParseSampleFormatErrors(t *testing.T) {
	for _, input := range []string{"", "x16", "s", "fle", "s1x"} {
		if _, err := ParseSampleFormat(input, DefaultFormat); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseSampleFormat(%q) error = %v, want ErrInvalidFormat", input, err)
		}
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{DefaultFormat, "s16le 44100Hz mono"},
		{Format{SampleRate: 48000, Channels: 2, BitDepth: 8, Kind: UnsignedInt}, "u8 48000Hz stereo"},
		{Format{SampleRate: 48000, Channels: 6, BitDepth: 32, Kind: Float, Order: BigEndian}, "f32be 48000Hz 6ch"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
