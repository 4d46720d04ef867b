// ABOUTME: Byte ring buffer kept eagerly full
// ABOUTME: Each read is followed by a synchronous refill of the drained region
package wavegen

// RingBuffer is a fixed-capacity circular byte buffer. It is refilled
// through fill after every Read so that it is full whenever control returns
// to the caller. Not safe for concurrent use.
type RingBuffer struct {
	data []byte
	pos  int // read cursor
	size int // unread bytes
	fill func([]byte)
}

// NewRingBuffer creates an empty ring. fill must write exactly len(dst) bytes.
func NewRingBuffer(capacity int, fill func(dst []byte)) *RingBuffer {
	return &RingBuffer{
		data: make([]byte, capacity),
		fill: fill,
	}
}

// Fill tops the ring up to capacity, in at most two contiguous chunks
func (b *RingBuffer) Fill() {
	capacity := len(b.data)
	free := capacity - b.size
	if free == 0 {
		return
	}

	start := (b.pos + b.size) % capacity
	first := min(free, capacity-start)
	b.fill(b.data[start : start+first])
	if first < free {
		b.fill(b.data[:free-first])
	}

	b.size = capacity
}

// Read copies min(len(p), Len()) bytes into p, then refills
func (b *RingBuffer) Read(p []byte) int {
	capacity := len(b.data)
	n := min(len(p), b.size)
	if n == 0 {
		return 0
	}

	first := min(n, capacity-b.pos)
	copy(p, b.data[b.pos:b.pos+first])
	if first < n {
		copy(p[first:n], b.data[:n-first])
	}

	b.pos = (b.pos + n) % capacity
	b.size -= n

	b.Fill()

	return n
}

// Len returns the number of unread bytes
func (b *RingBuffer) Len() int {
	return b.size
}

// Cap returns the capacity in bytes
func (b *RingBuffer) Cap() int {
	return len(b.data)
}

// Reset discards all buffered bytes
func (b *RingBuffer) Reset() {
	b.pos = 0
	b.size = 0
}
