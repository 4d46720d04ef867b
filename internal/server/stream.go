// ABOUTME: Chunk pacing for the monitor stream
// ABOUTME: Renders each listener's engine and sends timestamped PCM chunks
package server

import (
	"log"
	"time"

	"github.com/kb1p/WaveGen/internal/protocol"
	"github.com/kb1p/WaveGen/pkg/wavegen"
)

const (
	// BufferAhead is how far the stream runs ahead of real time
	BufferAhead = 100 * time.Millisecond

	// maxChunk bounds catch-up after a stall
	maxChunk = time.Second
)

// pacer tracks how many frames a listener is owed
type pacer struct {
	started time.Time
	rate    float64
	sent    uint64
}

func newPacer(started time.Time, sampleRate uint32) *pacer {
	return &pacer{started: started, rate: float64(sampleRate)}
}

// due returns the number of frames to send at now so that the stream stays
// BufferAhead in front of real time
func (p *pacer) due(now time.Time) int {
	want := uint64((now.Sub(p.started) + BufferAhead).Seconds() * p.rate)
	if want <= p.sent {
		return 0
	}
	return int(min(want-p.sent, uint64(maxChunk.Seconds()*p.rate)))
}

// runStreamer sends chunks to every listener every chunk duration until Stop
func (s *Server) runStreamer() {
	log.Printf("Monitor streamer starting (%v chunks)", s.config.ChunkDuration)

	ticker := time.NewTicker(s.config.ChunkDuration)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.sendChunks(now)
		case <-s.stopChan:
			log.Printf("Monitor streamer stopping")
			return
		}
	}
}

// sendChunks renders and queues one chunk for every listener. Listeners
// own independent engines, so a slow listener never skews another's stream.
// Nothing is rendered while the generator is paused.
func (s *Server) sendChunks(now time.Time) {
	playing, epoch := s.playback()
	if !playing {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if client.epoch != epoch {
			restartStream(client, now)
			client.epoch = epoch
		}

		// A full queue means a slow listener; render nothing so the stream
		// stays continuous and catch up on a later tick
		if len(client.sendChan) >= cap(client.sendChan)-1 {
			if s.config.Debug {
				log.Printf("[DEBUG] Send queue full for %s, deferring chunk", client.Name)
			}
			continue
		}

		frames := client.pacer.due(now)
		if frames == 0 {
			continue
		}

		if err := s.sendBinary(client, renderChunk(client.engine, frames)); err != nil {
			log.Printf("Error sending audio to %s: %v", client.Name, err)
			continue
		}
		client.pacer.sent += uint64(frames)
	}
}

// restartStream rewinds a listener's engine to time zero, matching a
// restart of local playback
func restartStream(client *Client, now time.Time) {
	client.engine.Stop()
	client.engine.Start()
	client.pacer = newPacer(now, client.engine.Format().SampleRate)
}

// renderChunk pulls frames from e, stamped with the stream time of the
// first frame in microseconds
func renderChunk(e *wavegen.Engine, frames int) []byte {
	timestamp := int64(e.Elapsed() * 1e6)
	pcm := e.Pull(frames * e.Format().FrameSize())
	return protocol.CreateAudioChunk(timestamp, pcm)
}
