// ABOUTME: Binary audio chunk framing
// ABOUTME: [type:1][timestamp µs big-endian:8][pcm:N]
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// AudioChunkMessageType marks a binary PCM chunk
	AudioChunkMessageType = 1

	// ChunkHeaderSize is the size of the type and timestamp prefix
	ChunkHeaderSize = 9
)

// ErrInvalidChunk is returned for malformed binary messages
var ErrInvalidChunk = errors.New("invalid audio chunk")

// AudioChunk is a block of PCM stamped with the stream time of its first frame
type AudioChunk struct {
	Timestamp int64 // microseconds of stream time
	Data      []byte
}

// CreateAudioChunk creates a binary audio chunk message
func CreateAudioChunk(timestamp int64, audioData []byte) []byte {
	chunk := make([]byte, ChunkHeaderSize+len(audioData))
	chunk[0] = AudioChunkMessageType
	binary.BigEndian.PutUint64(chunk[1:ChunkHeaderSize], uint64(timestamp))
	copy(chunk[ChunkHeaderSize:], audioData)
	return chunk
}

// ParseAudioChunk splits a binary message. Data aliases msg.
func ParseAudioChunk(msg []byte) (AudioChunk, error) {
	if len(msg) < ChunkHeaderSize {
		return AudioChunk{}, fmt.Errorf("%w: %d bytes", ErrInvalidChunk, len(msg))
	}
	if msg[0] != AudioChunkMessageType {
		return AudioChunk{}, fmt.Errorf("%w: message type %d", ErrInvalidChunk, msg[0])
	}

	return AudioChunk{
		Timestamp: int64(binary.BigEndian.Uint64(msg[1:ChunkHeaderSize])),
		Data:      msg[ChunkHeaderSize:],
	}, nil
}
