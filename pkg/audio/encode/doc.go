// ABOUTME: Audio encoder package for PCM sample encoding
// ABOUTME: Provides SampleEncoder and the per-format encoder table
// Package encode converts normalized amplitudes to PCM wire bytes.
//
// Supports: signed and unsigned 8/16/32-bit integers, 32-bit float,
// little- and big-endian. 24-bit packed samples are not supported.
//
// Integer mappings round half away from zero:
//
//	signed:   round(x * MAX)
//	unsigned: round((1 + x) / 2 * UMAX)
//
// Example:
//
//	enc, err := encode.New(format)
//	enc(buf[:format.BytesPerSample()], 0.5)
package encode
