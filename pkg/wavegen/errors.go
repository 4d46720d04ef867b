package wavegen

import "errors"

// ErrInvalidBuffer reports a buffer duration that does not map to a
// positive whole number of frames
var ErrInvalidBuffer = errors.New("invalid buffer size")
