// ABOUTME: WaveGen monitor protocol message type definitions
// ABOUTME: Defines the JSON control messages exchanged over the websocket
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/kb1p/WaveGen/pkg/audio"
)

// Version is the monitor protocol version
const Version = 1

// Message types
const (
	TypeClientHello  = "client/hello"
	TypeClientState  = "client/state"
	TypeServerHello  = "server/hello"
	TypeServerError  = "server/error"
	TypeStreamStart  = "stream/start"
	TypeStreamParams = "stream/params"
	TypeStreamEnd    = "stream/end"
)

// Client states reported in client/state
const (
	StatePlaying = "playing"
	StateIdle    = "idle"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// DecodePayload converts a generic payload into v
func DecodePayload(payload any, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// ClientHello is sent by listeners to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the generator's response to client/hello
type ServerHello struct {
	ServerID        string `json:"server_id"`
	Name            string `json:"name"`
	Version         int    `json:"version"`
	Product         string `json:"product"`
	SoftwareVersion string `json:"software_version"`
}

// ServerError rejects a connection
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ClientState reports the listener's playback state
type ClientState struct {
	State string `json:"state"` // "playing" or "idle"
}

// StreamStart notifies the listener of the stream format
type StreamStart struct {
	Codec        string `json:"codec"`
	SampleFormat string `json:"sample_format"` // e.g. "s16le"
	SampleRate   int    `json:"sample_rate"`
	Channels     int    `json:"channels"`
	BitDepth     int    `json:"bit_depth"`
}

// NewStreamStart describes a raw PCM stream in f
func NewStreamStart(f audio.Format) StreamStart {
	return StreamStart{
		Codec:        "pcm",
		SampleFormat: f.SampleFormat(),
		SampleRate:   int(f.SampleRate),
		Channels:     int(f.Channels),
		BitDepth:     int(f.BitDepth),
	}
}

// Format validates the announced stream and returns its format
func (s StreamStart) Format() (audio.Format, error) {
	if s.Codec != "pcm" {
		return audio.Format{}, fmt.Errorf("%w: codec %q", audio.ErrUnsupportedFormat, s.Codec)
	}
	if s.SampleRate <= 0 || s.Channels <= 0 {
		return audio.Format{}, fmt.Errorf("%w: %d Hz, %d channels", audio.ErrInvalidFormat, s.SampleRate, s.Channels)
	}

	f, err := audio.ParseSampleFormat(s.SampleFormat, audio.Format{
		SampleRate: uint32(s.SampleRate),
		Channels:   uint32(s.Channels),
	})
	if err != nil {
		return audio.Format{}, err
	}
	if int(f.BitDepth) != s.BitDepth {
		return audio.Format{}, fmt.Errorf("%w: bit depth %d disagrees with %s", audio.ErrInvalidFormat, s.BitDepth, s.SampleFormat)
	}

	return f, f.Validate()
}

// StreamParams describes what the generator is currently producing
type StreamParams struct {
	Script   string  `json:"script"`
	Function string  `json:"function"`
	FreqHz   float64 `json:"freq_hz"`
	Depth    float64 `json:"depth"`
	Playing  bool    `json:"playing"`
}
