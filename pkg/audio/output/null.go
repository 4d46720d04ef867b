// ABOUTME: Headless audio output
// ABOUTME: Drains a reader at real-time pace without a sound device
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kb1p/WaveGen/pkg/audio"
)

// DefaultNullPeriod is how often Null pulls from its reader
const DefaultNullPeriod = 20 * time.Millisecond

// Null consumes audio like a device would, but discards it. It is used
// for headless runs and tests.
type Null struct {
	period  time.Duration
	format  audio.Format
	volume  atomic.Uint64
	drained atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNull creates a headless output pulling every period
func NewNull(period time.Duration) *Null {
	if period <= 0 {
		period = DefaultNullPeriod
	}
	n := &Null{period: period}
	n.SetVolume(1)
	return n
}

// Open accepts any valid format
func (n *Null) Open(format audio.Format) (audio.Format, error) {
	if err := format.Validate(); err != nil {
		return audio.Format{}, err
	}
	n.format = format
	return format, nil
}

// Play starts draining r in the background
func (n *Null) Play(r io.Reader) error {
	if n.format.FrameSize() == 0 {
		return fmt.Errorf("output not initialized")
	}

	n.Pause()

	chunk := n.format.BytesPerSecond() * int(n.period.Microseconds()) / 1_000_000
	chunk -= chunk % n.format.FrameSize()
	if chunk == 0 {
		chunk = n.format.FrameSize()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	n.mu.Lock()
	n.cancel = cancel
	n.done = done
	n.mu.Unlock()

	go n.drain(ctx, r, make([]byte, chunk), done)
	return nil
}

func (n *Null) drain(ctx context.Context, r io.Reader, buf []byte, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(n.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k, err := io.ReadFull(r, buf)
			n.drained.Add(int64(k))
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					log.Printf("Null output read error: %v", err)
				}
				return
			}
		}
	}
}

// Pause stops draining and waits for the drain goroutine to exit
func (n *Null) Pause() {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel, n.done = nil, nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// SetVolume records the gain; Null has nothing to scale
func (n *Null) SetVolume(linear float64) {
	n.volume.Store(math.Float64bits(min(max(linear, 0), 1)))
}

// Volume returns the last gain set
func (n *Null) Volume() float64 {
	return math.Float64frombits(n.volume.Load())
}

// Drained returns the total number of bytes consumed
func (n *Null) Drained() int64 {
	return n.drained.Load()
}

// Close stops draining
func (n *Null) Close() error {
	n.Pause()
	return nil
}
