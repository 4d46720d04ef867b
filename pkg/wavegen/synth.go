// ABOUTME: Frame synthesizer shared by all buffering strategies
// ABOUTME: Produces a continuous encoded byte stream of arbitrary chunk sizes
package wavegen

import (
	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/audio/encode"
)

// synthesizer turns random values into encoded frames. Requests may end in
// the middle of a frame; the rest of that frame is kept and emitted first on
// the next request, so the stream is identical however it is chunked.
type synthesizer struct {
	encode     encode.SampleEncoder
	clock      *PhaseClock
	random     RandomSource
	shaper     *Shaper
	sampleSize int
	frameSize  int

	frame   []byte
	pending int // unread bytes at the end of frame
}

func newSynthesizer(format audio.Format, enc encode.SampleEncoder, random RandomSource, shaper *Shaper) *synthesizer {
	return &synthesizer{
		encode:     enc,
		clock:      NewPhaseClock(format.SampleRate),
		random:     random,
		shaper:     shaper,
		sampleSize: format.BytesPerSample(),
		frameSize:  format.FrameSize(),
		frame:      make([]byte, format.FrameSize()),
	}
}

func (s *synthesizer) reset() {
	s.clock.Reset()
	s.random.Reset()
	s.pending = 0
}

// fill writes exactly len(dst) bytes
func (s *synthesizer) fill(dst []byte) {
	n := 0
	if s.pending > 0 {
		c := copy(dst, s.frame[s.frameSize-s.pending:])
		s.pending -= c
		n += c
	}

	for len(dst)-n >= s.frameSize {
		s.writeFrame(dst[n : n+s.frameSize])
		n += s.frameSize
	}

	if n < len(dst) {
		s.writeFrame(s.frame)
		c := copy(dst[n:], s.frame)
		s.pending = s.frameSize - c
	}
}

func (s *synthesizer) writeFrame(dst []byte) {
	x := s.next()
	for off := 0; off < s.frameSize; off += s.sampleSize {
		s.encode(dst[off:off+s.sampleSize], x)
	}
}

func (s *synthesizer) next() float64 {
	r := s.random.Float64()*2 - 1
	x := clamp(s.shaper.Shape(s.clock.Elapsed(), r, s.clock.Previous()))
	s.clock.Advance(x)
	return x
}

func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
