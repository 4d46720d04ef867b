// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pulls PCM from a reader with hardware-mixer volume using oto
package output

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/kb1p/WaveGen/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	bufferSize time.Duration
	otoCtx     *oto.Context
	player     *oto.Player
	format     audio.Format
	volume     float64
}

// NewOto creates a new Oto output. bufferSize is the device buffer
// duration; zero lets oto choose.
func NewOto(bufferSize time.Duration) *Oto {
	return &Oto{
		bufferSize: bufferSize,
		volume:     1.0,
	}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format) (audio.Format, error) {
	if err := format.Validate(); err != nil {
		return audio.Format{}, err
	}

	nearest := NearestFormat(format)
	if nearest != format {
		log.Printf("Warning: %s not supported by output, using nearest %s", format, nearest)
	}

	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil && o.format == nearest {
		log.Printf("Audio output already initialized with same format, reusing context")
		return o.format, nil
	}

	// oto only allows one context per process
	if o.otoCtx != nil {
		log.Printf("Warning: format change detected (%s -> %s) but oto doesn't support reinitialization. Continuing with existing context.",
			o.format, nearest)
		return o.format, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(nearest.SampleRate),
		ChannelCount: int(nearest.Channels),
		Format:       otoFormat(nearest),
		BufferSize:   o.bufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return audio.Format{}, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = nearest

	log.Printf("Audio output initialized: %s", nearest)

	return nearest, nil
}

func otoFormat(f audio.Format) oto.Format {
	switch {
	case f.Kind == audio.Float:
		return oto.FormatFloat32LE
	case f.BitDepth == 8:
		return oto.FormatUnsignedInt8
	default:
		return oto.FormatSignedInt16LE
	}
}

// Play starts a new player pulling from r
func (o *Oto) Play(r io.Reader) error {
	if o.otoCtx == nil {
		return fmt.Errorf("output not initialized")
	}

	o.closePlayer()

	o.player = o.otoCtx.NewPlayer(r)
	o.player.SetVolume(o.volume)
	o.player.Play()

	return nil
}

// Pause stops the current player
func (o *Oto) Pause() {
	if o.player != nil {
		o.player.Pause()
	}
}

// SetVolume sets the linear gain (0-1)
func (o *Oto) SetVolume(linear float64) {
	o.volume = min(max(linear, 0), 1)
	if o.player != nil {
		o.player.SetVolume(o.volume)
	}
}

// Volume returns the linear gain
func (o *Oto) Volume() float64 {
	return o.volume
}

func (o *Oto) closePlayer() {
	if o.player == nil {
		return
	}
	if err := o.player.Close(); err != nil {
		log.Printf("Failed to close player: %v", err)
	}
	o.player = nil
}

// BufferSize returns the configured device buffer duration
func (o *Oto) BufferSize() time.Duration {
	return o.bufferSize
}

// Close releases output resources
func (o *Oto) Close() error {
	o.closePlayer()
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}
