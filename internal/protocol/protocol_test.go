// ABOUTME: Tests for monitor protocol messages
// ABOUTME: Covers chunk framing and stream format negotiation
package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kb1p/WaveGen/pkg/audio"
)

func TestAudioChunkFraming(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	msg := CreateAudioChunk(0x0102030405060708, pcm)

	want := []byte{1, 1, 2, 3, 4, 5, 6, 7, 8, 1, 2, 3, 4}
	if !bytes.Equal(msg, want) {
		t.Fatalf("CreateAudioChunk = % x, want % x", msg, want)
	}

	chunk, err := ParseAudioChunk(msg)
	if err != nil {
		t.Fatalf("ParseAudioChunk failed: %v", err)
	}
	if chunk.Timestamp != 0x0102030405060708 || !bytes.Equal(chunk.Data, pcm) {
		t.Errorf("unexpected chunk: %+v", chunk)
	}
}

func TestParseAudioChunkErrors(t *testing.T) {
	for _, msg := range [][]byte{
		nil,
		{1, 0, 0},
		{2, 0, 0, 0, 0, 0, 0, 0, 0, 0xFF},
	} {
		if _, err := ParseAudioChunk(msg); !errors.Is(err, ErrInvalidChunk) {
			t.Errorf("ParseAudioChunk(% x) error = %v, want ErrInvalidChunk", msg, err)
		}
	}
}

func TestStreamStartFormat(t *testing.T) {
	f := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 32, Kind: audio.Float, Order: audio.BigEndian}

	start := NewStreamStart(f)
	if start.SampleFormat != "f32be" || start.BitDepth != 32 {
		t.Fatalf("unexpected stream start: %+v", start)
	}

	got, err := start.Format()
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if got != f {
		t.Errorf("Format() = %s, want %s", got, f)
	}
}

func TestStreamStartRejects(t *testing.T) {
	tests := []struct {
		name  string
		start StreamStart
	}{
		{"opus", StreamStart{Codec: "opus", SampleFormat: "s16le", SampleRate: 48000, Channels: 2, BitDepth: 16}},
		{"zero rate", StreamStart{Codec: "pcm", SampleFormat: "s16le", Channels: 2, BitDepth: 16}},
		{"depth mismatch", StreamStart{Codec: "pcm", SampleFormat: "s16le", SampleRate: 48000, Channels: 2, BitDepth: 24}},
		{"bad name", StreamStart{Codec: "pcm", SampleFormat: "x16", SampleRate: 48000, Channels: 2, BitDepth: 16}},
		{"24-bit", StreamStart{Codec: "pcm", SampleFormat: "s24le", SampleRate: 48000, Channels: 2, BitDepth: 24}},
	}

	for _, tt := range tests {
		if _, err := tt.start.Format(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestDecodePayload(t *testing.T) {
	generic := map[string]any{"client_id": "abc", "name": "Desk", "version": 1.0}

	var hello ClientHello
	if err := DecodePayload(generic, &hello); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if hello.ClientID != "abc" || hello.Name != "Desk" || hello.Version != 1 {
		t.Errorf("unexpected hello: %+v", hello)
	}

	if err := DecodePayload(map[string]any{"version": "one"}, &hello); err == nil {
		t.Error("expected error for mistyped field")
	}
}
