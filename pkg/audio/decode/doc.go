// ABOUTME: Audio decoder package for PCM sample decoding
// ABOUTME: Inverse of the encode package, used for metering and verification
// Package decode converts PCM wire bytes back to normalized amplitudes.
//
// Every encoding accepted by encode.New has a decoder here. Integer
// encodings decode to the nearest representable amplitude (within one
// quantization step of the encoded value); float decodes exactly.
//
// Example:
//
//	dec, err := decode.NewPCM(format)
//	x := dec(data[:format.BytesPerSample()])
//
//	peak := decode.Peak(dec, format, chunk)
package decode
