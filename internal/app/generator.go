// ABOUTME: Main generator application orchestration
// ABOUTME: Coordinates the modulation host, engine, output, monitor and UI
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/kb1p/WaveGen/internal/modulator"
	"github.com/kb1p/WaveGen/internal/protocol"
	"github.com/kb1p/WaveGen/internal/server"
	"github.com/kb1p/WaveGen/internal/ui"
	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/audio/output"
	"github.com/kb1p/WaveGen/pkg/wavegen"
)

const statusInterval = 100 * time.Millisecond

// Config holds generator configuration
type Config struct {
	Format    audio.Format
	ScriptDir string
	Script    string
	Function  string // empty selects the script's first function
	FreqHz    float64
	Depth     float64
	Buffering wavegen.Buffering
	BufferMs  int // engine ring capacity or direct-fill window
	Volume    int // 0-100 on the perceived scale
	Autoplay  bool

	UseTUI      bool
	MonitorPort int // 0 disables the monitor stream
	EnableMDNS  bool
	Name        string

	DeviceBufferMs int // audio device buffer; 0 lets the backend choose
	NoAudio        bool
	Output         output.Output // overrides the device chosen by NoAudio
}

// Status is a snapshot of the generator
type Status struct {
	SessionID string
	Playing   bool
	Format    audio.Format
	Buffering wavegen.Buffering
	Script    string
	Function  string
	Functions []string
	FreqHz    float64
	Depth     float64
	Volume    int
	Elapsed   time.Duration
	Failures  uint64
	Clients   int
	Monitor   string
}

// binding boxes the active modulator for atomic swaps
type binding struct {
	name string
	m    wavegen.Modulator
}

// Generator is the interactive tone/noise generator
type Generator struct {
	config    Config
	sessionID string

	host   *modulator.Host
	output output.Output
	format audio.Format
	reader *lockedReader

	current atomic.Pointer[binding]

	mu        sync.Mutex
	script    string
	functions []string
	playing   bool
	volume    int

	monitor *server.Server
	control *ui.Control
	tuiProg *tea.Program

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new generator
func New(config Config) *Generator {
	ctx, cancel := context.WithCancel(context.Background())

	if config.Name == "" {
		config.Name = "WaveGen"
	}

	return &Generator{
		config:    config,
		sessionID: uuid.New().String(),
		host:      modulator.NewHost(),
		volume:    min(max(config.Volume, 0), 100),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Run sets everything up and blocks until Stop or a quit from the TUI
func (g *Generator) Run() error {
	if err := g.setup(); err != nil {
		g.teardown()
		return err
	}
	defer g.teardown()

	if g.config.UseTUI {
		g.startTUI()
	}

	if g.config.Autoplay {
		if err := g.Play(); err != nil {
			return err
		}
	}

	var quit <-chan struct{}
	if g.control != nil {
		quit = g.control.Quit
	}

	select {
	case <-g.ctx.Done():
	case <-quit:
		log.Printf("Quit requested from TUI")
	}

	return nil
}

// setup loads the script, opens the output and builds the engine
func (g *Generator) setup() error {
	log.Printf("Generator starting: %s (session %s)", g.config.Name, g.sessionID)

	g.host.SetParams(g.config.FreqHz, g.config.Depth)

	g.mu.Lock()
	err := g.loadScript(g.config.Script, g.config.Function)
	g.mu.Unlock()
	if err != nil {
		return err
	}

	out := newOutput(g.config)
	g.mu.Lock()
	g.output = out
	g.mu.Unlock()

	format, err := out.Open(g.config.Format)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	if format != g.config.Format {
		log.Printf("Requested format %s not supported, using %s", g.config.Format, format)
	}

	engine, err := wavegen.New(format, wavegen.ModulatorFunc(g.modulate),
		wavegen.WithBuffering(g.config.Buffering, time.Duration(g.config.BufferMs)*time.Millisecond))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	var monitor *server.Server
	if g.config.MonitorPort > 0 {
		monitor = server.New(server.Config{
			Port:       g.config.MonitorPort,
			Name:       g.config.Name,
			ServerID:   g.sessionID,
			EnableMDNS: g.config.EnableMDNS,
		}, g)
	}

	g.mu.Lock()
	g.format = format
	g.reader = &lockedReader{engine: engine}
	g.monitor = monitor
	g.output.SetVolume(output.PerceivedToLinear(float64(g.volume) / 100))
	g.mu.Unlock()

	if monitor != nil {
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			if err := monitor.Start(); err != nil {
				log.Printf("Monitor server error: %v", err)
			}
		}()
	}

	g.publishParams()
	return nil
}

// newOutput picks the configured output. The device buffer is sized
// independently of the engine buffer so that pause and volume respond
// quickly.
func newOutput(config Config) output.Output {
	switch {
	case config.Output != nil:
		return config.Output
	case config.NoAudio:
		return output.NewNull(0)
	default:
		return output.NewOto(time.Duration(config.DeviceBufferMs) * time.Millisecond)
	}
}

// teardown stops playback and releases everything setup created
func (g *Generator) teardown() {
	if err := g.Pause(); err != nil {
		log.Printf("Pause on shutdown failed: %v", err)
	}

	if g.tuiProg != nil {
		g.tuiProg.Quit()
	}
	if g.monitor != nil {
		g.monitor.Stop()
	}
	g.cancel()
	g.wg.Wait()

	if g.output != nil {
		if err := g.output.Close(); err != nil {
			log.Printf("Failed to close output: %v", err)
		}
	}
	g.host.Close()

	log.Printf("Generator stopped")
}

// Stop makes Run return
func (g *Generator) Stop() {
	g.cancel()
}

// loadScript runs a script and binds function, or its first function.
// Callers hold g.mu.
func (g *Generator) loadScript(script, function string) error {
	if script == "" {
		script = modulator.DefaultScript
	}
	if err := g.host.Load(script, g.config.ScriptDir); err != nil {
		return err
	}

	functions := g.host.Functions()
	if function == "" {
		if len(functions) == 0 {
			return fmt.Errorf("%w: script %s defines no functions", modulator.ErrUnknownFunction, script)
		}
		function = functions[0]
	}

	m, err := g.host.Bind(function)
	if err != nil {
		return err
	}

	g.script = script
	g.functions = functions
	g.current.Store(&binding{name: function, m: m})
	log.Printf("Bound modulator %s.%s", script, function)

	return nil
}

func (g *Generator) modulate(t, random, previous float64) (float64, error) {
	m := g.Modulator()
	if m == nil {
		return 0, nil
	}
	return m.Modulate(t, random, previous)
}

// Modulator returns the active modulator
func (g *Generator) Modulator() wavegen.Modulator {
	if b := g.current.Load(); b != nil {
		return b.m
	}
	return nil
}

// Format returns the negotiated stream format
func (g *Generator) Format() audio.Format {
	return g.format
}

// Play starts the engine from time zero and hands it to the output
func (g *Generator) Play() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.play()
}

func (g *Generator) play() error {
	if g.playing {
		return nil
	}

	g.reader.start()
	if err := g.output.Play(g.reader); err != nil {
		g.reader.stop()
		return fmt.Errorf("failed to start playback: %w", err)
	}
	g.playing = true

	log.Printf("Playback started")
	g.publishParamsLocked()
	return nil
}

// Pause stops the output and the engine
func (g *Generator) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pause()
	return nil
}

func (g *Generator) pause() {
	if !g.playing {
		return
	}

	g.output.Pause()
	g.reader.stop()
	g.playing = false

	log.Printf("Playback paused")
	g.publishParamsLocked()
}

// Toggle switches between playing and paused
func (g *Generator) Toggle() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.playing {
		g.pause()
		return nil
	}
	return g.play()
}

// SelectFunction rebinds the modulator. Playback restarts from time zero,
// as it does after any change of the generating function.
func (g *Generator) SelectFunction(name string) error {
	m, err := g.host.Bind(name)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	wasPlaying := g.playing
	g.pause()
	g.current.Store(&binding{name: name, m: m})
	log.Printf("Selected function %s", name)

	if wasPlaying {
		return g.play()
	}
	g.publishParamsLocked()
	return nil
}

// StepFunction selects the function delta places away, wrapping around
func (g *Generator) StepFunction(delta int) error {
	g.mu.Lock()
	functions := g.functions
	g.mu.Unlock()

	if len(functions) == 0 {
		return fmt.Errorf("%w: no functions loaded", modulator.ErrUnknownFunction)
	}

	index := 0
	if b := g.current.Load(); b != nil {
		for i, name := range functions {
			if name == b.name {
				index = i
				break
			}
		}
	}

	n := len(functions)
	return g.SelectFunction(functions[((index+delta)%n+n)%n])
}

// SelectScript loads another script and binds its first function
func (g *Generator) SelectScript(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	wasPlaying := g.playing
	g.pause()

	if err := g.loadScript(name, ""); err != nil {
		// the previous script stays loaded
		if wasPlaying {
			if playErr := g.play(); playErr != nil {
				log.Printf("Failed to resume playback: %v", playErr)
			}
		}
		return err
	}

	if wasPlaying {
		return g.play()
	}
	g.publishParamsLocked()
	return nil
}

// StepScript selects the script delta places away in the script
// directory listing, wrapping around
func (g *Generator) StepScript(delta int) error {
	names, err := modulator.Scripts(g.config.ScriptDir)
	if err != nil {
		return err
	}

	g.mu.Lock()
	current := g.script
	g.mu.Unlock()

	index := 0
	for i, name := range names {
		if name == current {
			index = i
			break
		}
	}

	n := len(names)
	return g.SelectScript(names[((index+delta)%n+n)%n])
}

// SetParams updates frequency and depth without restarting playback
func (g *Generator) SetParams(freqHz, depth float64) {
	g.host.SetParams(freqHz, depth)
	g.publishParams()
}

// SetVolume sets the output volume in percent on the perceived scale
func (g *Generator) SetVolume(percent int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.volume = min(max(percent, 0), 100)
	if g.output != nil {
		g.output.SetVolume(output.PerceivedToLinear(float64(g.volume) / 100))
	}
}

// Status returns a snapshot of the generator
func (g *Generator) Status() Status {
	freqHz, depth := g.host.Params()

	g.mu.Lock()
	defer g.mu.Unlock()

	s := Status{
		SessionID: g.sessionID,
		Playing:   g.playing,
		Format:    g.format,
		Buffering: g.config.Buffering,
		Script:    g.script,
		Functions: g.functions,
		FreqHz:    freqHz,
		Depth:     depth,
		Volume:    g.volume,
	}
	if b := g.current.Load(); b != nil {
		s.Function = b.name
	}
	if g.reader != nil {
		s.Elapsed, s.Failures = g.reader.stats()
	}
	if g.monitor != nil {
		s.Clients = g.monitor.ClientCount()
		s.Monitor = fmt.Sprintf(":%d%s", g.config.MonitorPort, server.Path)
	}

	return s
}

func (g *Generator) publishParams() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.publishParamsLocked()
}

func (g *Generator) publishParamsLocked() {
	if g.monitor == nil {
		return
	}

	freqHz, depth := g.host.Params()
	params := protocol.StreamParams{
		Script:  g.script,
		FreqHz:  freqHz,
		Depth:   depth,
		Playing: g.playing,
	}
	if b := g.current.Load(); b != nil {
		params.Function = b.name
	}
	g.monitor.UpdateParams(params)
}

// lockedReader serializes the output's reads with engine control
type lockedReader struct {
	mu     sync.Mutex
	engine *wavegen.Engine
}

func (r *lockedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Read(p)
}

func (r *lockedReader) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.Start()
}

func (r *lockedReader) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.Stop()
}

// stats reports the stream time handed to the output, which trails the
// synthesized time by whatever the ring still holds
func (r *lockedReader) stats() (time.Duration, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := r.engine.Elapsed()
	if r.engine.Buffering() == wavegen.RingBuffered {
		f := r.engine.Format()
		elapsed -= float64(r.engine.Available()/f.FrameSize()) / float64(f.SampleRate)
	}
	return time.Duration(max(elapsed, 0) * float64(time.Second)), r.engine.Failures()
}

var _ io.Reader = (*lockedReader)(nil)
