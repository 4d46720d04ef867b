// ABOUTME: Error definitions for the modulation host
// ABOUTME: Sentinel errors for script loading and binding
package modulator

import "errors"

var (
	// ErrUnknownScript is returned when no script of that name exists
	ErrUnknownScript = errors.New("unknown modulator script")

	// ErrUnknownFunction is returned when the loaded script lacks a function
	ErrUnknownFunction = errors.New("unknown modulator function")

	// ErrNotNumber is returned when a modulator returns a non-number
	ErrNotNumber = errors.New("modulator returned a non-number")

	// ErrStaleBinding is returned by a binding whose script was reloaded or closed
	ErrStaleBinding = errors.New("modulator binding is stale")
)
