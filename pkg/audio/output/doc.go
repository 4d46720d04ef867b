// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface with oto and headless implementations
// Package output provides pull-driven audio playback.
//
// The device pulls PCM from an io.Reader, typically a wavegen.Engine, so the
// consumer sets the pace of synthesis.
//
// Oto accepts u8, s16le and f32le; other formats are replaced with the
// nearest supported one by Open, and the caller must produce that format.
//
// Example:
//
//	out := output.NewOto(0)
//	format, err := out.Open(requested)
//	eng, err := wavegen.New(format, modulator)
//	eng.Start()
//	err = out.Play(eng)
package output
