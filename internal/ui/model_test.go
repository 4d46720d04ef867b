// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests key bindings, status updates and rendering
package ui

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)

	if model.playing {
		t.Error("expected playing to be false initially")
	}
	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.depth != 1 {
		t.Errorf("expected default depth 1, got %v", model.depth)
	}
}

func TestToggleKey(t *testing.T) {
	ctrl := NewControl()
	model := press(NewModel(ctrl), tea.KeyMsg{Type: tea.KeySpace})

	if !model.playing {
		t.Error("expected space to toggle playing")
	}
	select {
	case <-ctrl.Toggle:
	default:
		t.Error("expected toggle command")
	}
}

func TestFunctionKeys(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	model = press(model, tea.KeyMsg{Type: tea.KeyRight})
	model = press(model, tea.KeyMsg{Type: tea.KeyLeft})

	if got := <-ctrl.Function; got != 1 {
		t.Errorf("right arrow sent %d, want 1", got)
	}
	if got := <-ctrl.Function; got != -1 {
		t.Errorf("left arrow sent %d, want -1", got)
	}
}

func TestScriptKeys(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	model = press(model, tea.KeyMsg{Type: tea.KeyTab})
	model = press(model, tea.KeyMsg{Type: tea.KeyShiftTab})

	if got := <-ctrl.Script; got != 1 {
		t.Errorf("tab sent %d, want 1", got)
	}
	if got := <-ctrl.Script; got != -1 {
		t.Errorf("shift+tab sent %d, want -1", got)
	}
}

func TestVolumeKeys(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	model = press(model, tea.KeyMsg{Type: tea.KeyUp})
	if model.volume != 100 {
		t.Errorf("volume should clamp at 100, got %d", model.volume)
	}

	for range 3 {
		model = press(model, tea.KeyMsg{Type: tea.KeyDown})
	}
	if model.volume != 85 {
		t.Errorf("expected volume 85, got %d", model.volume)
	}

	var last int
	for len(ctrl.Volume) > 0 {
		last = <-ctrl.Volume
	}
	if last != 85 {
		t.Errorf("last volume command %d, want 85", last)
	}

	model.volume = 3
	model = press(model, tea.KeyMsg{Type: tea.KeyDown})
	if model.volume != 0 {
		t.Errorf("volume should clamp at 0, got %d", model.volume)
	}
}

func TestFrequencyKeys(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)
	model.freqHz = 440

	for range 12 {
		model = press(model, runes("]"))
	}
	if math.Abs(model.freqHz-880) > 1e-9 {
		t.Errorf("twelve semitones up from 440 = %v, want 880", model.freqHz)
	}

	model = press(model, runes("["))
	change := ParamsChange{}
	for len(ctrl.Params) > 0 {
		change = <-ctrl.Params
	}
	if math.Abs(change.FreqHz-880/semitone) > 1e-9 {
		t.Errorf("last params change %v, want %v", change.FreqHz, 880/semitone)
	}

	model.freqHz = minFreqHz
	model = press(model, runes("["))
	if model.freqHz != minFreqHz {
		t.Errorf("frequency should clamp at %v, got %v", minFreqHz, model.freqHz)
	}
}

func TestDepthKeys(t *testing.T) {
	model := NewModel(nil)

	model = press(model, runes("="))
	if model.depth != 1 {
		t.Errorf("depth should clamp at 1, got %v", model.depth)
	}

	for range 4 {
		model = press(model, runes("-"))
	}
	if math.Abs(model.depth-0.8) > 1e-9 {
		t.Errorf("expected depth 0.8, got %v", model.depth)
	}

	model.depth = 0.01
	model = press(model, runes("-"))
	if model.depth != 0 {
		t.Errorf("depth should clamp at 0, got %v", model.depth)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		ctrl := NewControl()
		next, cmd := NewModel(ctrl).Update(msg)

		if !next.(Model).quitting {
			t.Errorf("%s: expected quitting", msg)
		}
		if cmd == nil {
			t.Errorf("%s: expected quit command", msg)
		}
		select {
		case <-ctrl.Quit:
		default:
			t.Errorf("%s: expected quit signal", msg)
		}
	}
}

func TestKeysWithoutControl(t *testing.T) {
	model := NewModel(nil)
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeySpace}, {Type: tea.KeyLeft}, {Type: tea.KeyUp}, runes("]"), runes("-"),
	} {
		model = press(model, msg)
	}
}

func TestFullControlChannelDoesNotBlock(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	for range cap(ctrl.Toggle) + 5 {
		model = press(model, tea.KeyMsg{Type: tea.KeySpace})
	}
	if len(ctrl.Toggle) != cap(ctrl.Toggle) {
		t.Errorf("expected full toggle channel, got %d", len(ctrl.Toggle))
	}
}

func TestApplyStatus(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{
		Playing:   true,
		Format:    "s16le 44100Hz mono",
		Buffering: "ring",
		Script:    "default",
		Function:  "sine",
		Functions: []string{"noiseSine", "sine"},
		FreqHz:    330,
		Depth:     0.4,
		Volume:    70,
		Elapsed:   1500 * time.Millisecond,
		Failures:  2,
		Clients:   1,
		SessionID: "abc-123",
		Monitor:   ":8927",
	})

	if !model.playing || model.function != "sine" || model.freqHz != 330 || model.volume != 70 {
		t.Errorf("status not applied: %+v", model)
	}

	view := model.View()
	for _, want := range []string{"playing", "s16le 44100Hz mono", "▶ sine", "330.00 Hz", "70%", "2 samples silenced", "1 listening", "abc-123"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewWithoutFunctions(t *testing.T) {
	view := NewModel(nil).View()
	if !strings.Contains(view, "No functions") {
		t.Error("expected empty function list notice")
	}
	if strings.Contains(view, "Monitor") {
		t.Error("monitor line should be hidden when disabled")
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "░░░░"},
		{50, "██░░"},
		{100, "████"},
		{150, "████"},
		{-10, "░░░░"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, 100, 4); got != tt.want {
			t.Errorf("renderBar(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
