// ABOUTME: Entry point for the WaveGen tone and noise generator
// ABOUTME: Parses CLI flags and starts the generator application
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kb1p/WaveGen/internal/app"
	"github.com/kb1p/WaveGen/internal/modulator"
	"github.com/kb1p/WaveGen/internal/version"
	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/wavegen"
)

// envPrefix names the variables that supply flag defaults, e.g.
// WAVEGEN_SCRIPT_DIR for -script-dir
const envPrefix = "WAVEGEN_"

var (
	sampleFormat = flag.String("format", "s16le", "Sample format (u8, s16le, s32be, f32le, ...)")
	rate         = flag.Uint("rate", 44100, "Sample rate in Hz")
	channels     = flag.Uint("channels", 1, "Channel count")
	buffering    = flag.String("buffering", "ring", "Buffering strategy: ring or direct")
	bufferMs     = flag.Int("buffer-ms", 1000, "Ring capacity or direct-fill window in milliseconds")
	deviceBuffer = flag.Int("device-buffer-ms", 0, "Audio device buffer in milliseconds (0 lets the backend choose)")
	scriptDir    = flag.String("script-dir", "", "Directory with modulator scripts (*.lua)")
	script       = flag.String("script", modulator.DefaultScript, "Modulator script name")
	function     = flag.String("function", "", "Modulator function (default: first in script)")
	freq         = flag.Float64("freq", modulator.DefaultFreqHz, "Modulation frequency in Hz")
	depth        = flag.Float64("depth", modulator.DefaultDepth, "Modulation depth (0-1)")
	volume       = flag.Int("volume", 50, "Initial volume in percent")
	autoplay     = flag.Bool("autoplay", false, "Start playing immediately")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	monitorPort  = flag.Int("monitor-port", 0, "Serve the generated stream over websocket on this port (0 disables)")
	enableMDNS   = flag.Bool("mdns", true, "Advertise the monitor stream via mDNS")
	name         = flag.String("name", "", "Generator friendly name (default: hostname-wavegen)")
	noAudio      = flag.Bool("no-audio", false, "Drain the stream without an audio device")
	listScripts  = flag.Bool("list", false, "List available scripts and functions, then exit")
	showVersion  = flag.Bool("version", false, "Print version and exit")
	logFile      = flag.String("log-file", "wavegen.log", "Log file path")
	envFile      = flag.String("env-file", ".env", "Optional file with "+envPrefix+"* defaults")
)

func main() {
	flag.Parse()

	if err := loadEnv(flag.CommandLine, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *listScripts {
		if err := printScripts(*scriptDir); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	format, err := parseFormat(*sampleFormat, *rate, *channels)
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}

	mode, err := wavegen.ParseBuffering(*buffering)
	if err != nil {
		log.Fatalf("Invalid buffering: %v", err)
	}

	generatorName := *name
	if generatorName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		generatorName = fmt.Sprintf("%s-wavegen", hostname)
	}

	if !useTUI {
		log.Printf("Starting %s: %s", version.String(), generatorName)
		log.Printf("Format %s, %s buffering (%d ms)", format, mode, *bufferMs)
	}

	g := app.New(app.Config{
		Format:      format,
		ScriptDir:   *scriptDir,
		Script:      *script,
		Function:    *function,
		FreqHz:      *freq,
		Depth:       *depth,
		Buffering:   mode,
		BufferMs:    *bufferMs,
		Volume:      *volume,
		Autoplay:    *autoplay || !useTUI,
		UseTUI:      useTUI,
		MonitorPort: *monitorPort,
		EnableMDNS:  *enableMDNS,
		Name:        generatorName,
		NoAudio:     *noAudio,

		DeviceBufferMs: *deviceBuffer,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		g.Stop()
	}()

	if err := g.Run(); err != nil {
		log.Fatalf("Generator error: %v", err)
	}
}

// loadEnv reads envFile if present, then applies WAVEGEN_* variables to
// every flag not set on the command line
func loadEnv(fs *flag.FlagSet, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || explicit[f.Name] {
			return
		}
		key := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		value, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if setErr := fs.Set(f.Name, value); setErr != nil {
			err = fmt.Errorf("invalid %s: %w", key, setErr)
		}
	})
	return err
}

func parseFormat(sampleFormat string, rate, channels uint) (audio.Format, error) {
	format := audio.DefaultFormat
	format.SampleRate = uint32(rate)
	format.Channels = uint32(channels)

	format, err := audio.ParseSampleFormat(sampleFormat, format)
	if err != nil {
		return format, err
	}
	return format, format.Validate()
}

// printScripts lists every script with its functions
func printScripts(dir string) error {
	names, err := modulator.Scripts(dir)
	if err != nil {
		return err
	}

	host := modulator.NewHost()
	defer host.Close()

	for _, script := range names {
		if err := host.Load(script, dir); err != nil {
			fmt.Printf("%s: %v\n", script, err)
			continue
		}
		fmt.Printf("%s:\n", script)
		for _, fn := range host.Functions() {
			fmt.Printf("  %s\n", fn)
		}
	}
	return nil
}
