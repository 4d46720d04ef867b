// ABOUTME: Streaming engine orchestrating synthesis and buffering
// ABOUTME: Exposes the pull-style io.Reader consumed by playback
package wavegen

import (
	"fmt"
	"io"
	"time"

	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/audio/encode"
)

type options struct {
	buffering Buffering
	duration  time.Duration
	random    RandomSource
	onFailure func(error)
}

// Option configures an Engine
type Option func(*options)

// WithRingBuffer synthesizes d worth of audio ahead of the reader
func WithRingBuffer(d time.Duration) Option {
	return func(o *options) {
		o.buffering = RingBuffered
		o.duration = d
	}
}

// WithDirectFill synthesizes inside Read. hintWindow sizes the value
// reported by Available.
func WithDirectFill(hintWindow time.Duration) Option {
	return func(o *options) {
		o.buffering = DirectFill
		o.duration = hintWindow
	}
}

// WithBuffering selects a strategy by value
func WithBuffering(b Buffering, d time.Duration) Option {
	if b == DirectFill {
		return WithDirectFill(d)
	}
	return WithRingBuffer(d)
}

// WithRandom replaces the securely seeded random source
func WithRandom(r RandomSource) Option {
	return func(o *options) {
		o.random = r
	}
}

// WithFailureHandler receives every shaping failure
func WithFailureHandler(fn func(error)) Option {
	return func(o *options) {
		o.onFailure = fn
	}
}

// Engine produces an endless encoded PCM stream on demand
type Engine struct {
	format    audio.Format
	buffering Buffering
	synth     *synthesizer
	shaper    *Shaper
	strategy  strategy
	producing bool
}

// New validates format and buffering and builds an idle engine.
// m may be nil, in which case the engine produces silence.
func New(format audio.Format, m Modulator, opts ...Option) (*Engine, error) {
	o := options{
		buffering: RingBuffered,
		duration:  DefaultBufferDuration,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.random == nil {
		o.random = NewRandom()
	}

	enc, err := encode.New(format)
	if err != nil {
		return nil, fmt.Errorf("engine format %s: %w", format, err)
	}

	size, err := BufferBytes(format, o.duration)
	if err != nil {
		return nil, err
	}

	shaper := NewShaper(m, o.onFailure)
	synth := newSynthesizer(format, enc, o.random, shaper)

	e := &Engine{
		format:    format,
		buffering: o.buffering,
		synth:     synth,
		shaper:    shaper,
	}

	switch o.buffering {
	case RingBuffered:
		e.strategy = &ringStrategy{synth: synth, capacity: size}
	case DirectFill:
		e.strategy = &directStrategy{synth: synth, hint: size}
	default:
		return nil, fmt.Errorf("unknown buffering %v", o.buffering)
	}

	return e, nil
}

// Start rewinds time and randomness and begins producing. With the ring
// strategy the whole ring is synthesized before Start returns.
func (e *Engine) Start() {
	e.synth.reset()
	e.strategy.start()
	e.producing = true
}

// Stop halts production and releases buffered audio. Reads return io.EOF
// until the next Start.
func (e *Engine) Stop() {
	e.producing = false
	e.strategy.stop()
}

// Read fills p with encoded audio. Direct fill always satisfies the whole
// request; the ring strategy returns at most its buffered size and is
// refilled before Read returns.
func (e *Engine) Read(p []byte) (int, error) {
	if !e.producing {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	return e.strategy.read(p), nil
}

// Pull returns up to n freshly produced bytes
func (e *Engine) Pull(n int) []byte {
	buf := make([]byte, n)
	k, _ := e.Read(buf)
	return buf[:k]
}

// Available is a sizing hint for the consumer: the buffered byte count for
// the ring strategy, a fixed window for direct fill, 0 while idle
func (e *Engine) Available() int {
	if !e.producing {
		return 0
	}
	return e.strategy.available()
}

// Format returns the bound format
func (e *Engine) Format() audio.Format {
	return e.format
}

// Buffering returns the strategy in use
func (e *Engine) Buffering() Buffering {
	return e.buffering
}

// Producing reports whether the engine is between Start and Stop
func (e *Engine) Producing() bool {
	return e.producing
}

// Elapsed returns the stream time of the next synthesized frame in seconds.
// With the ring strategy synthesis runs ahead of consumption by the ring size.
func (e *Engine) Elapsed() float64 {
	return e.synth.clock.Elapsed()
}

// Failures returns the number of samples replaced with silence because the
// modulator failed. Safe to call from any goroutine.
func (e *Engine) Failures() uint64 {
	return e.shaper.Failures()
}
