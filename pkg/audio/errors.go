// ABOUTME: Sentinel errors for audio formats and sample shaping
// ABOUTME: Matched by callers with errors.Is
package audio

import "errors"

var (
	// ErrInvalidFormat reports a malformed format descriptor
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrUnsupportedFormat reports a well-formed but unimplemented encoding
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrShapingFailure reports a modulation function that failed for one sample
	ErrShapingFailure = errors.New("sample shaping failed")
)
