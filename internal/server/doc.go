// ABOUTME: Monitor server package
// ABOUTME: Streams the generator to remote listeners over websockets
// Package server implements the WaveGen monitor stream.
//
// A listener connects to ws://host:port/wavegen and sends client/hello.
// The server answers with server/hello, stream/start (the PCM format) and
// stream/params, then sends binary chunks:
//
//	[type=1][timestamp µs, big-endian uint64][pcm]
//
// Every listener gets its own direct-fill engine bound to the modulator
// the generator is currently using, so a listener always hears the stream
// from time zero and never steals samples from local playback.
package server
