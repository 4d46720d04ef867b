// ABOUTME: Buffering strategies for the engine
// ABOUTME: Ring buffer (synthesize ahead) and direct fill (synthesize inline)
package wavegen

import (
	"fmt"
	"strings"
	"time"

	"github.com/kb1p/WaveGen/pkg/audio"
)

// Buffering selects how synthesis is scheduled relative to reads
type Buffering int

const (
	// RingBuffered keeps a full ring of synthesized bytes ahead of the reader
	RingBuffered Buffering = iota
	// DirectFill synthesizes straight into the reader's buffer
	DirectFill
)

// DefaultBufferDuration is the ring capacity, or the direct-fill
// availability hint, in stream time
const DefaultBufferDuration = time.Second

func (b Buffering) String() string {
	switch b {
	case RingBuffered:
		return "ring"
	case DirectFill:
		return "direct"
	default:
		return fmt.Sprintf("Buffering(%d)", int(b))
	}
}

// ParseBuffering parses "ring" or "direct"
func ParseBuffering(s string) (Buffering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ring", "":
		return RingBuffered, nil
	case "direct":
		return DirectFill, nil
	default:
		return 0, fmt.Errorf("unknown buffering %q (supported: ring, direct)", s)
	}
}

// BufferBytes returns the byte size of d worth of stream:
// rate * channels * bytesPerSample * micros / 1e6.
// The result must be a positive multiple of the frame size.
func BufferBytes(format audio.Format, d time.Duration) (int, error) {
	micros := d.Microseconds()
	if micros <= 0 {
		return 0, fmt.Errorf("%w: duration %v must be positive", ErrInvalidBuffer, d)
	}

	n := int64(format.BytesPerSecond()) * micros / 1_000_000
	frame := int64(format.FrameSize())
	if n == 0 || n%frame != 0 {
		return 0, fmt.Errorf("%w: %v of %s is %d bytes, not a whole number of %d-byte frames",
			ErrInvalidBuffer, d, format, n, frame)
	}

	return int(n), nil
}

// strategy schedules synthesis for the engine
type strategy interface {
	start()
	stop()
	read(p []byte) int
	available() int
}

// directStrategy synthesizes inline on every read
type directStrategy struct {
	synth *synthesizer
	hint  int
}

func (d *directStrategy) start() {}

func (d *directStrategy) stop() {}

func (d *directStrategy) read(p []byte) int {
	d.synth.fill(p)
	return len(p)
}

func (d *directStrategy) available() int {
	return d.hint
}

// ringStrategy keeps a ring full; the ring only exists while producing
type ringStrategy struct {
	synth    *synthesizer
	capacity int
	ring     *RingBuffer
}

func (r *ringStrategy) start() {
	r.ring = NewRingBuffer(r.capacity, r.synth.fill)
	r.ring.Fill()
}

func (r *ringStrategy) stop() {
	r.ring = nil
}

func (r *ringStrategy) read(p []byte) int {
	if r.ring == nil {
		return 0
	}
	return r.ring.Read(p)
}

func (r *ringStrategy) available() int {
	if r.ring == nil {
		return 0
	}
	return r.ring.Len()
}
