// ABOUTME: TUI wiring for the generator
// ABOUTME: Applies key commands and pushes status snapshots to the UI
package app

import (
	"log"
	"time"

	"github.com/kb1p/WaveGen/internal/ui"
)

// startTUI runs the bubbletea program and its command and status loops
func (g *Generator) startTUI() {
	g.control = ui.NewControl()
	g.tuiProg = ui.Run(g.control)

	g.wg.Add(3)
	go func() {
		defer g.wg.Done()
		if _, err := g.tuiProg.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
		g.Stop()
	}()
	go func() {
		defer g.wg.Done()
		g.handleControls(g.control)
	}()
	go func() {
		defer g.wg.Done()
		g.statusLoop()
	}()
}

// handleControls applies commands from the TUI
func (g *Generator) handleControls(ctrl *ui.Control) {
	for {
		var err error

		select {
		case <-ctrl.Toggle:
			err = g.Toggle()
		case delta := <-ctrl.Function:
			err = g.StepFunction(delta)
		case delta := <-ctrl.Script:
			err = g.StepScript(delta)
		case volume := <-ctrl.Volume:
			g.SetVolume(volume)
		case change := <-ctrl.Params:
			g.SetParams(change.FreqHz, change.Depth)
		case <-g.ctx.Done():
			return
		}

		if err != nil {
			log.Printf("Control error: %v", err)
		}
	}
}

// statusLoop pushes status snapshots to the TUI
func (g *Generator) statusLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.tuiProg.Send(statusMsg(g.Status()))
		case <-g.ctx.Done():
			return
		}
	}
}

func statusMsg(s Status) ui.StatusMsg {
	return ui.StatusMsg{
		Playing:   s.Playing,
		Format:    s.Format.String(),
		Buffering: s.Buffering.String(),
		Script:    s.Script,
		Function:  s.Function,
		Functions: s.Functions,
		FreqHz:    s.FreqHz,
		Depth:     s.Depth,
		Volume:    s.Volume,
		Elapsed:   s.Elapsed,
		Failures:  s.Failures,
		Clients:   s.Clients,
		SessionID: s.SessionID,
		Monitor:   s.Monitor,
	}
}
