// ABOUTME: Sample generation and streaming engine
// ABOUTME: Pull-driven synthesis of shaped noise/tones into encoded PCM bytes
// Package wavegen implements the real-time sample generation engine.
//
// An Engine produces an endless PCM byte stream in a fixed audio.Format.
// For every frame it draws a random value, hands it to a Modulator together
// with the elapsed stream time and the previous output, clamps the result to
// [-1, 1] and encodes it once per channel.
//
// The engine is driven entirely by its consumer through Read (io.Reader), so
// it can be handed straight to a playback library:
//
//	eng, err := wavegen.New(audio.DefaultFormat, wavegen.Identity)
//	if err != nil {
//	    return err
//	}
//	eng.Start()
//	player := otoCtx.NewPlayer(eng)
//
// Two buffering strategies share the same synthesis:
//   - WithRingBuffer: a fixed ring is kept full; every Read is followed by a
//     synchronous refill of the drained region
//   - WithDirectFill: samples are synthesized straight into the caller's buffer
//
// Engines hold no locks. Start, Stop and Read must not run concurrently.
//
// A nil Modulator produces silence, and a Modulator that fails for a sample
// produces silence for that sample only.
package wavegen
