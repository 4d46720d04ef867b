// ABOUTME: Sample shaper adapting an external modulation function
// ABOUTME: Substitutes silence for missing or failing modulators
package wavegen

import (
	"fmt"
	"log"
	"math"
	"sync/atomic"

	"github.com/kb1p/WaveGen/pkg/audio"
)

// FailureLogInterval is how often the default failure handler logs once
// the first failure has been reported
const FailureLogInterval = 48000

// Modulator computes the next amplitude from the stream time in seconds,
// a uniform random value in [-1, 1] and the previous output in [-1, 1].
// Results are expected in [-1, 1]; the engine clamps anything else.
type Modulator interface {
	Modulate(t, random, previous float64) (float64, error)
}

// ModulatorFunc adapts a plain function to Modulator
type ModulatorFunc func(t, random, previous float64) (float64, error)

// Modulate calls f
func (f ModulatorFunc) Modulate(t, random, previous float64) (float64, error) {
	return f(t, random, previous)
}

// Identity passes the random value through, producing white noise
var Identity = ModulatorFunc(func(_, random, _ float64) (float64, error) {
	return random, nil
})

// Silence always returns zero
var Silence = ModulatorFunc(func(_, _, _ float64) (float64, error) {
	return 0, nil
})

// Shaper invokes a borrowed Modulator and never lets its failures escape
type Shaper struct {
	modulator Modulator
	onFailure func(error)
	failures  atomic.Uint64
}

// NewShaper wraps m. A nil m shapes every sample to silence. onFailure
// receives every failure wrapped in audio.ErrShapingFailure; when nil,
// failures are logged with throttling.
func NewShaper(m Modulator, onFailure func(error)) *Shaper {
	return &Shaper{
		modulator: m,
		onFailure: onFailure,
	}
}

// Shape returns the modulator's output for one frame, or 0 when there is no
// modulator or it fails (error, panic, NaN or infinite result)
func (s *Shaper) Shape(t, random, previous float64) (out float64) {
	if s.modulator == nil {
		return 0
	}

	defer func() {
		if p := recover(); p != nil {
			s.fail(fmt.Errorf("%w: modulator panicked: %v", audio.ErrShapingFailure, p))
			out = 0
		}
	}()

	v, err := s.modulator.Modulate(t, random, previous)
	if err != nil {
		s.fail(fmt.Errorf("%w: %w", audio.ErrShapingFailure, err))
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.fail(fmt.Errorf("%w: non-finite result %v at t=%.6f", audio.ErrShapingFailure, v, t))
		return 0
	}

	return v
}

// Failures returns the number of samples substituted with silence.
// Safe to call from any goroutine.
func (s *Shaper) Failures() uint64 {
	return s.failures.Load()
}

func (s *Shaper) fail(err error) {
	n := s.failures.Add(1)
	if s.onFailure != nil {
		s.onFailure(err)
		return
	}
	if n == 1 || n%FailureLogInterval == 0 {
		log.Printf("Shaping failure #%d, substituting silence: %v", n, err)
	}
}
