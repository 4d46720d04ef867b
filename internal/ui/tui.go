// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program and the channels back to the generator
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ParamsChange carries new modulation parameters
type ParamsChange struct {
	FreqHz float64
	Depth  float64
}

// Control holds channels for commands from the TUI to the generator
type Control struct {
	Toggle   chan struct{}
	Function chan int // -1 previous, +1 next
	Script   chan int // -1 previous, +1 next
	Volume   chan int // 0-100, perceived scale
	Params   chan ParamsChange
	Quit     chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Toggle:   make(chan struct{}, 10),
		Function: make(chan int, 10),
		Script:   make(chan int, 10),
		Volume:   make(chan int, 10),
		Params:   make(chan ParamsChange, 10),
		Quit:     make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		volume:  100,
		freqHz:  220,
		depth:   1,
		control: ctrl,
	}
}

// Run creates the TUI program. The caller runs it and feeds StatusMsg
// through Program.Send.
func Run(ctrl *Control) *tea.Program {
	return tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
}
