// ABOUTME: Sample encoder type definition
// ABOUTME: One channel sample from a normalized amplitude to wire bytes
package encode

// SampleEncoder writes the wire representation of one channel sample.
// x must already be clamped to [-1, 1]; dst must hold at least
// Format.BytesPerSample bytes. Implementations never allocate.
type SampleEncoder func(dst []byte, x float64)
