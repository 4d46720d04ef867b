// ABOUTME: Bubbletea model for the generator TUI
// ABOUTME: Defines display state, key bindings and rendering
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kb1p/WaveGen/internal/version"
)

const (
	volumeStep = 5
	depthStep  = 0.05
	minFreqHz  = 1.0
	maxFreqHz  = 24000.0
)

// semitone is the frequency ratio of one key press
var semitone = math.Pow(2, 1.0/12)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	// Generator
	playing   bool
	format    string
	buffering string
	script    string
	function  string
	functions []string

	// Parameters
	freqHz float64
	depth  float64
	volume int

	// Stats
	elapsed   time.Duration
	failures  uint64
	clients   int
	sessionID string
	monitor   string

	control  *Control
	quitting bool

	// Dimensions
	width  int
	height int
}

// StatusMsg is a snapshot of the generator state
type StatusMsg struct {
	Playing   bool
	Format    string
	Buffering string
	Script    string
	Function  string
	Functions []string
	FreqHz    float64
	Depth     float64
	Volume    int
	Elapsed   time.Duration
	Failures  uint64
	Clients   int
	SessionID string
	Monitor   string
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping generator...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(version.String()))
	b.WriteString("\n\n")

	state := valueStyle.Render("stopped")
	if m.playing {
		state = activeStyle.Render("playing")
	}
	m.field(&b, "State", state)
	m.field(&b, "Format", valueStyle.Render(fmt.Sprintf("%s (%s buffering)", m.format, m.buffering)))
	m.field(&b, "Script", valueStyle.Render(m.script))
	b.WriteString("\n")

	b.WriteString(m.renderFunctions())
	b.WriteString("\n")

	m.field(&b, "Frequency", valueStyle.Render(fmt.Sprintf("%.2f Hz", m.freqHz)))
	m.field(&b, "Depth", valueStyle.Render(fmt.Sprintf("[%s] %.2f", renderBar(int(math.Round(m.depth*100)), 100, 20), m.depth)))
	m.field(&b, "Volume", valueStyle.Render(fmt.Sprintf("[%s] %d%%", renderBar(m.volume, 100, 20), m.volume)))
	b.WriteString("\n")

	m.field(&b, "Elapsed", valueStyle.Render(m.elapsed.Round(time.Millisecond).String()))
	failures := valueStyle.Render("0")
	if m.failures > 0 {
		failures = warnStyle.Render(fmt.Sprintf("%d samples silenced", m.failures))
	}
	m.field(&b, "Failures", failures)
	if m.monitor != "" {
		m.field(&b, "Monitor", valueStyle.Render(fmt.Sprintf("%s (%d listening)", m.monitor, m.clients)))
	}
	if m.sessionID != "" {
		m.field(&b, "Session", helpStyle.Render(m.sessionID))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Play/Pause  ←/→:Function  tab:Script  ↑/↓:Volume  [/]:Freq  -/=:Depth  q:Quit"))

	return b.String()
}

func (m Model) field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s", name+":")))
	b.WriteString(value)
	b.WriteString("\n")
}

// renderFunctions lists the script's functions with the active one marked
func (m Model) renderFunctions() string {
	if len(m.functions) == 0 {
		return warnStyle.Render("  No functions in script") + "\n"
	}

	var b strings.Builder
	for _, name := range m.functions {
		if name == m.function {
			b.WriteString(activeStyle.Render("▶ " + name))
		} else {
			b.WriteString(valueStyle.Render("  " + name))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.control != nil {
			select {
			case m.control.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit

	case " ", "space":
		m.playing = !m.playing
		m.send(func(c *Control) bool { return trySend(c.Toggle, struct{}{}) })

	case "left":
		m.send(func(c *Control) bool { return trySend(c.Function, -1) })
	case "right":
		m.send(func(c *Control) bool { return trySend(c.Function, 1) })

	case "tab":
		m.send(func(c *Control) bool { return trySend(c.Script, 1) })
	case "shift+tab":
		m.send(func(c *Control) bool { return trySend(c.Script, -1) })

	case "up":
		m.volume = min(m.volume+volumeStep, 100)
		m.send(func(c *Control) bool { return trySend(c.Volume, m.volume) })
	case "down":
		m.volume = max(m.volume-volumeStep, 0)
		m.send(func(c *Control) bool { return trySend(c.Volume, m.volume) })

	case "[":
		m.freqHz = max(m.freqHz/semitone, minFreqHz)
		m.sendParams()
	case "]":
		m.freqHz = min(m.freqHz*semitone, maxFreqHz)
		m.sendParams()

	case "-":
		m.depth = max(m.depth-depthStep, 0)
		m.sendParams()
	case "=", "+":
		m.depth = min(m.depth+depthStep, 1)
		m.sendParams()
	}

	return m, nil
}

func (m Model) sendParams() {
	change := ParamsChange{FreqHz: m.freqHz, Depth: m.depth}
	m.send(func(c *Control) bool { return trySend(c.Params, change) })
}

func (m Model) send(fn func(*Control) bool) {
	if m.control != nil {
		fn(m.control)
	}
}

// trySend never blocks the UI loop
func trySend[T any](ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}

// applyStatus updates model from a status snapshot
func (m *Model) applyStatus(msg StatusMsg) {
	m.playing = msg.Playing
	m.format = msg.Format
	m.buffering = msg.Buffering
	m.script = msg.Script
	m.function = msg.Function
	m.functions = msg.Functions
	m.freqHz = msg.FreqHz
	m.depth = msg.Depth
	m.volume = msg.Volume
	m.elapsed = msg.Elapsed
	m.failures = msg.Failures
	m.clients = msg.Clients
	m.sessionID = msg.SessionID
	m.monitor = msg.Monitor
}

// Utility functions
func renderBar(value, total, width int) string {
	filled := min(max((value*width)/total, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
