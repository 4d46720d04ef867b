// ABOUTME: Audio fundamentals package providing the format descriptor
// ABOUTME: Defines Format, sample kinds, byte orders and format errors
// Package audio provides the fundamental types shared by the wavegen packages.
//
// Format describes the wire encoding of a generated PCM stream:
//   - SampleRate and Channels
//   - BitDepth: 8, 16 or 32 bits per channel sample
//   - Kind: signed integer, unsigned integer, or 32-bit float
//   - Order: little- or big-endian for multi-byte samples
//
// Validation happens once, when a Format is bound to an engine. Packed 24-bit
// samples are not supported and fail with ErrUnsupportedFormat.
//
// Example:
//
//	format, err := audio.ParseSampleFormat("s16le", audio.DefaultFormat)
//	if err != nil {
//	    return err
//	}
//	format.Channels = 2
//	if err := format.Validate(); err != nil {
//	    return err
//	}
package audio
