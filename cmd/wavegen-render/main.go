// ABOUTME: Entry point for rendering generator output to raw PCM
// ABOUTME: Writes a fixed duration of one modulator to a file or stdout
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kb1p/WaveGen/internal/modulator"
	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/wavegen"
)

var (
	sampleFormat = flag.String("format", "s16le", "Sample format (u8, s16le, s32be, f32le, ...)")
	rate         = flag.Uint("rate", 44100, "Sample rate in Hz")
	channels     = flag.Uint("channels", 1, "Channel count")
	scriptDir    = flag.String("script-dir", "", "Directory with modulator scripts (*.lua)")
	script       = flag.String("script", modulator.DefaultScript, "Modulator script name")
	function     = flag.String("function", "sine", "Modulator function")
	freq         = flag.Float64("freq", modulator.DefaultFreqHz, "Modulation frequency in Hz")
	depth        = flag.Float64("depth", modulator.DefaultDepth, "Modulation depth (0-1)")
	duration     = flag.Duration("duration", 5*time.Second, "Length of the rendered stream")
	seed         = flag.Uint64("seed", 0, "Random seed for reproducible noise (0 seeds securely)")
	outFile      = flag.String("out", "-", "Output file (- for stdout)")
)

func main() {
	flag.Parse()

	// stdout may carry the PCM stream
	log.SetOutput(os.Stderr)

	format := audio.DefaultFormat
	format.SampleRate = uint32(*rate)
	format.Channels = uint32(*channels)
	format, err := audio.ParseSampleFormat(*sampleFormat, format)
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}

	host := modulator.NewHost()
	defer host.Close()

	host.SetParams(*freq, *depth)
	if err := host.Load(*script, *scriptDir); err != nil {
		log.Fatalf("Failed to load script: %v", err)
	}
	m, err := host.Bind(*function)
	if err != nil {
		log.Fatalf("Failed to bind function: %v", err)
	}

	opts := []wavegen.Option{wavegen.WithDirectFill(wavegen.DefaultBufferDuration)}
	if *seed != 0 {
		opts = append(opts, wavegen.WithRandom(wavegen.NewSeededRandom(*seed)))
	}

	engine, err := wavegen.New(format, m, opts...)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	var out io.Writer = os.Stdout
	if *outFile != "-" {
		f, err := os.Create(*outFile)
		if err != nil {
			log.Fatalf("Failed to create output: %v", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	frames := int64(duration.Seconds() * float64(format.SampleRate))
	written, err := render(out, engine, frames)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	log.Printf("Rendered %s.%s: %d bytes of %s (%v)", *script, *function, written, format, *duration)
	if failures := engine.Failures(); failures > 0 {
		log.Printf("Warning: %d samples failed to shape and were rendered as silence", failures)
	}
}

// render writes frames frames of engine output to w
func render(w io.Writer, engine *wavegen.Engine, frames int64) (int64, error) {
	bw := bufio.NewWriter(w)

	engine.Start()
	defer engine.Stop()

	remaining := frames * int64(engine.Format().FrameSize())
	written, err := io.CopyN(bw, engine, remaining)
	if err != nil {
		return written, fmt.Errorf("failed to write samples: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush output: %w", err)
	}
	return written, nil
}
