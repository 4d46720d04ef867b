// ABOUTME: Phase clock for synthesis time tracking
// ABOUTME: Advances once per frame by the sample interval
package wavegen

// PhaseClock tracks elapsed synthesis time and the last produced amplitude.
// Time advances once per frame, so every channel of a frame shares one
// timestamp.
type PhaseClock struct {
	interval float64
	frames   uint64
	previous float64
}

// NewPhaseClock creates a clock for the given sample rate
func NewPhaseClock(sampleRate uint32) *PhaseClock {
	return &PhaseClock{
		interval: 1.0 / float64(sampleRate),
	}
}

// Interval returns the duration of one frame in seconds
func (c *PhaseClock) Interval() float64 {
	return c.interval
}

// Elapsed returns the synthesis time of the next frame in seconds.
// It is computed from the frame count so it never accumulates rounding drift.
func (c *PhaseClock) Elapsed() float64 {
	return float64(c.frames) * c.interval
}

// Frames returns the number of frames produced since the last reset
func (c *PhaseClock) Frames() uint64 {
	return c.frames
}

// Previous returns the amplitude of the last frame
func (c *PhaseClock) Previous() float64 {
	return c.previous
}

// Advance records the amplitude of the current frame and moves to the next
func (c *PhaseClock) Advance(output float64) {
	c.previous = output
	c.frames++
}

// Reset rewinds the clock to zero
func (c *PhaseClock) Reset() {
	c.frames = 0
	c.previous = 0
}
