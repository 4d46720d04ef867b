// ABOUTME: Random source for noise synthesis
// ABOUTME: ChaCha8 generator producing values in the closed interval [0, 1]
package wavegen

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// upperBound makes 1.0 reachable: values are drawn from [0, 1+ε) and the
// overshoot is clamped.
const upperBound = 1.0 + 0x1p-52

// RandomSource produces uniform values in [0, 1], both ends included
type RandomSource interface {
	Float64() float64

	// Reset restarts the sequence
	Reset()
}

// Random is a RandomSource backed by ChaCha8
type Random struct {
	seed [32]byte
	src  *rand.ChaCha8
	rng  *rand.Rand
}

// NewRandom creates a source seeded from the operating system's secure
// random generator
func NewRandom() *Random {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("wavegen: secure seed unavailable: " + err.Error())
	}
	return newRandom(seed)
}

// NewSeededRandom creates a deterministic source, mainly for tests and
// reproducible renders
func NewSeededRandom(seed uint64) *Random {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return newRandom(s)
}

func newRandom(seed [32]byte) *Random {
	src := rand.NewChaCha8(seed)
	return &Random{
		seed: seed,
		src:  src,
		rng:  rand.New(src),
	}
}

// Float64 returns a value in [0, 1]
func (r *Random) Float64() float64 {
	v := r.rng.Float64() * upperBound
	if v > 1 {
		v = 1
	}
	return v
}

// Reset restarts the sequence from the original seed
func (r *Random) Reset() {
	r.src.Seed(r.seed)
}
