// ABOUTME: Lua modulation host package
// ABOUTME: Loads modulator scripts and binds their functions to the engine
// Package modulator runs user modulation scripts written in Lua.
//
// A script defines global functions of the form
//
//	function name(t, random, previous) ... return amplitude end
//
// where t is the stream time in seconds, random a uniform value in [-1, 1]
// and previous the last produced amplitude. The host exposes the global
// freqHz and a preloaded "wavegen" module:
//
//	local wavegen = require("wavegen")
//	wavegen.depth()            -- current modulation depth in [0, 1]
//	wavegen.modulate(base, w)  -- depth-modulate base by waveform w
//
// The Lua state belongs to the Host. Bound functions lock the host for
// every call, so one Host can feed several engines at once. Those engines
// then share the script's globals: a function should depend only on its
// arguments, keeping per-stream state in previous.
package modulator
