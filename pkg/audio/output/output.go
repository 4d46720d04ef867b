// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-driven playback backends
package output

import (
	"io"

	"github.com/kb1p/WaveGen/pkg/audio"
)

// Output represents an audio output device that pulls PCM from a reader
type Output interface {
	// Open initializes the device and returns the format actually in use,
	// which may differ from the requested one (see NearestFormat)
	Open(format audio.Format) (audio.Format, error)

	// Play starts pulling from r, replacing any previous reader
	Play(r io.Reader) error

	// Pause stops pulling without releasing the device
	Pause()

	// SetVolume sets the linear gain in [0, 1]
	SetVolume(linear float64)

	// Close releases output resources
	Close() error
}
