// ABOUTME: Entry point for listening to a generator's monitor stream
// ABOUTME: Discovers or dials a generator, plays its stream and prints a peak meter
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kb1p/WaveGen/internal/client"
	"github.com/kb1p/WaveGen/internal/discovery"
	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/audio/decode"
	"github.com/kb1p/WaveGen/pkg/audio/encode"
	"github.com/kb1p/WaveGen/pkg/audio/output"
)

const meterWidth = 40

var (
	serverAddr = flag.String("server", "", "Generator address, host:port or ws:// URL (skip mDNS)")
	name       = flag.String("name", "", "Listener name (default: hostname-wavegen-listen)")
	bufferMs   = flag.Int("buffer-ms", 200, "Playback buffer in milliseconds")
	noAudio    = flag.Bool("no-audio", false, "Only print the meter")
	timeout    = flag.Duration("discover-timeout", 10*time.Second, "How long to browse for generators")
)

func main() {
	flag.Parse()

	listenerName := *name
	if listenerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		listenerName = fmt.Sprintf("%s-wavegen-listen", hostname)
	}

	addr := *serverAddr
	if addr == "" {
		var err error
		addr, err = discover(*timeout)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
	}

	c, err := client.Dial(addr, listenerName)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer c.Close()

	hello := c.Server()
	format := c.Format()
	log.Printf("Connected to %s (%s %s), stream %s", hello.Name, hello.Product, hello.SoftwareVersion, format)

	var out output.Output
	if *noAudio {
		out = output.NewNull(0)
	} else {
		out = output.NewOto(time.Duration(*bufferMs) * time.Millisecond)
	}
	defer func() { _ = out.Close() }()

	playFormat, err := out.Open(format)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}
	if playFormat != format {
		log.Printf("Transcoding %s to %s for playback", format, playFormat)
	}

	dec, err := decode.NewPCM(format)
	if err != nil {
		log.Fatalf("Unsupported stream format: %v", err)
	}
	conv, err := newConverter(format, playFormat)
	if err != nil {
		log.Fatalf("Unsupported playback format: %v", err)
	}

	pr, pw := io.Pipe()
	if err := out.Play(pr); err != nil {
		log.Fatalf("Failed to start playback: %v", err)
	}
	if err := c.SendState("playing"); err != nil {
		log.Printf("Failed to report state: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var peak float64
	for {
		select {
		case chunk, ok := <-c.Chunks():
			if !ok {
				fmt.Println()
				log.Printf("Stream ended")
				_ = pw.Close()
				return
			}
			peak = max(peak, decode.Peak(dec, format, chunk.Data))
			if _, err := pw.Write(conv.convert(chunk.Data)); err != nil {
				log.Printf("Playback write failed: %v", err)
			}

		case params := <-c.Params():
			fmt.Println()
			log.Printf("Generator: %s.%s at %.1f Hz, depth %.2f, playing=%v",
				params.Script, params.Function, params.FreqHz, params.Depth, params.Playing)

		case <-ticker.C:
			fmt.Printf("\r%s", meter(peak))
			peak = 0

		case <-sigChan:
			fmt.Println()
			log.Printf("Shutdown signal received")
			_ = pw.Close()
			return
		}
	}
}

// discover browses mDNS for the first generator
func discover(timeout time.Duration) (string, error) {
	log.Printf("Browsing for generators (%s)...", discovery.ServiceType)

	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()

	if err := disc.Browse(); err != nil {
		return "", err
	}

	select {
	case server := <-disc.Servers():
		log.Printf("Discovered %s at %s", server.Name, server.URL())
		return server.URL(), nil
	case <-time.After(timeout):
		return "", fmt.Errorf("no generator found after %v", timeout)
	}
}

// meter renders a peak level bar with its dBFS reading
func meter(peak float64) string {
	filled := min(int(peak*meterWidth+0.5), meterWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", meterWidth-filled)
	return fmt.Sprintf("[%s] %s", bar, dbfs(peak))
}

func dbfs(peak float64) string {
	if peak <= 0 {
		return "  -inf dBFS"
	}
	return fmt.Sprintf("%6.1f dBFS", 20*math.Log10(peak))
}

// converter re-encodes samples when the device needs another format.
// Rate and channel count always match.
type converter struct {
	from, to audio.Format
	dec      decode.SampleDecoder
	enc      encode.SampleEncoder
	buf      []byte
}

func newConverter(from, to audio.Format) (*converter, error) {
	c := &converter{from: from, to: to}
	if from == to {
		return c, nil
	}

	var err error
	if c.dec, err = decode.NewPCM(from); err != nil {
		return nil, err
	}
	if c.enc, err = encode.New(to); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *converter) convert(data []byte) []byte {
	if c.enc == nil {
		return data
	}

	inSize, outSize := c.from.BytesPerSample(), c.to.BytesPerSample()
	samples := len(data) / inSize

	if cap(c.buf) < samples*outSize {
		c.buf = make([]byte, samples*outSize)
	}
	out := c.buf[:samples*outSize]
	for i := range samples {
		c.enc(out[i*outSize:], c.dec(data[i*inSize:]))
	}
	return out
}
