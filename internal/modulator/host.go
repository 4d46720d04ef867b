// ABOUTME: Lua state owner for modulator scripts
// ABOUTME: Loads scripts, lists their functions and binds them as modulators
package modulator

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kb1p/WaveGen/pkg/wavegen"
	lua "github.com/yuin/gopher-lua"
)

// DefaultScript is the name of the embedded script
const DefaultScript = "default"

// Default parameters applied before any script runs
const (
	DefaultFreqHz = 220.0
	DefaultDepth  = 1.0
)

const scriptExt = ".lua"

//go:embed scripts/default.lua
var defaultSource string

// Host owns one Lua state at a time. Loading a script replaces the state;
// bindings made against the previous state become stale.
type Host struct {
	mu     sync.Mutex
	state  *lua.LState
	script string
	freqHz float64
	depth  float64
}

// NewHost creates a host with no script loaded
func NewHost() *Host {
	return &Host{
		freqHz: DefaultFreqHz,
		depth:  DefaultDepth,
	}
}

// Scripts lists the script names available in dir, always including the
// embedded default. A missing directory is not an error.
func Scripts(dir string) ([]string, error) {
	names := []string{DefaultScript}
	if dir == "" {
		return names, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return names, nil
		}
		return names, fmt.Errorf("failed to list scripts in %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != scriptExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), scriptExt)
		if name != DefaultScript {
			names = append(names, name)
		}
	}
	sort.Strings(names[1:])

	return names, nil
}

// Load executes the named script in a fresh Lua state. A file in dir takes
// precedence; "default" falls back to the embedded script.
func (h *Host) Load(name, dir string) error {
	source, origin, err := readScript(name, dir)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	L := h.newState()
	if err := L.DoString(source); err != nil {
		L.Close()
		return fmt.Errorf("failed to run script %s: %w", origin, err)
	}

	if h.state != nil {
		h.state.Close()
	}
	h.state = L
	h.script = name

	log.Printf("Loaded modulator script %s", origin)
	return nil
}

func readScript(name, dir string) (source, origin string, err error) {
	if name == "" {
		name = DefaultScript
	}
	if strings.ContainsAny(name, `/\`) {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}

	if dir != "" {
		path := filepath.Join(dir, name+scriptExt)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !os.IsNotExist(err) {
			return "", "", fmt.Errorf("failed to read script %s: %w", path, err)
		}
	}

	if name == DefaultScript {
		return defaultSource, "<embedded default>", nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownScript, name)
}

// newState builds a sandboxed state: no io, os or debug libraries
func (h *Host) newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	L.PreloadModule("wavegen", h.loadModule)
	L.SetGlobal("freqHz", lua.LNumber(h.freqHz))

	return L
}

func (h *Host) loadModule(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"modulate": func(L *lua.LState) int {
			base := float64(L.CheckNumber(1))
			wave := float64(L.CheckNumber(2))
			L.Push(lua.LNumber(Modulate(base, wave, h.depth)))
			return 1
		},
		"depth": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.depth))
			return 1
		},
	})
	L.Push(mod)
	return 1
}

// Modulate scales base by the waveform wave in [-1, 1] with the given
// depth in [0, 1]. At depth 0 base is returned unchanged; at depth 1 the
// level of base follows the waveform from silence to full.
func Modulate(base, wave, depth float64) float64 {
	mw := (wave + 1.0) / 2.0
	if base >= 0 {
		return base * (mw*depth - depth + 1.0)
	}
	return base * (1.0 - mw*depth)
}

// Script returns the name of the loaded script, or "" before Load
func (h *Host) Script() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.script
}

// Functions lists the global functions defined by the loaded script
func (h *Host) Functions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == nil {
		return nil
	}

	var names []string
	h.state.G.Global.ForEach(func(key, value lua.LValue) {
		fn, ok := value.(*lua.LFunction)
		if !ok || fn.IsG {
			return
		}
		if name, ok := key.(lua.LString); ok {
			names = append(names, string(name))
		}
	})
	sort.Strings(names)

	return names
}

// Bind resolves a function of the loaded script as a modulator
func (h *Host) Bind(name string) (wavegen.Modulator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == nil {
		return nil, fmt.Errorf("%w: %s (no script loaded)", ErrUnknownFunction, name)
	}

	fn, ok := h.state.GetGlobal(name).(*lua.LFunction)
	if !ok || fn.IsG {
		return nil, fmt.Errorf("%w: %s in script %s", ErrUnknownFunction, name, h.script)
	}

	return &binding{host: h, state: h.state, name: name, fn: fn}, nil
}

// SetParams updates freqHz and the modulation depth. Running bindings see
// the new values on their next call. Depth is clamped to [0, 1].
func (h *Host) SetParams(freqHz, depth float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.freqHz = freqHz
	h.depth = min(max(depth, 0), 1)
	if h.state != nil {
		h.state.SetGlobal("freqHz", lua.LNumber(h.freqHz))
	}
}

// Params returns the current frequency and depth
func (h *Host) Params() (freqHz, depth float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.freqHz, h.depth
}

// Close tears the Lua state down. Existing bindings become stale.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != nil {
		h.state.Close()
		h.state = nil
	}
	h.script = ""
}

// binding is one script function bound to the state it was resolved in
type binding struct {
	host  *Host
	state *lua.LState
	name  string
	fn    *lua.LFunction
}

func (b *binding) Modulate(t, random, previous float64) (float64, error) {
	b.host.mu.Lock()
	defer b.host.mu.Unlock()

	L := b.host.state
	if L != b.state {
		return 0, fmt.Errorf("%w: %s", ErrStaleBinding, b.name)
	}

	err := L.CallByParam(lua.P{Fn: b.fn, NRet: 1, Protect: true},
		lua.LNumber(t), lua.LNumber(random), lua.LNumber(previous))
	if err != nil {
		return 0, fmt.Errorf("%s(%.6f): %w", b.name, t, err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%w: %s returned %s", ErrNotNumber, b.name, ret.Type())
	}
	return float64(n), nil
}

func (b *binding) String() string {
	return b.name
}
