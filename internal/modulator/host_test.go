package modulator

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefault(t *testing.T) *Host {
	t.Helper()
	h := NewHost()
	t.Cleanup(h.Close)
	require.NoError(t, h.Load(DefaultScript, ""))
	return h
}

func call(t *testing.T, h *Host, name string, ts, random, previous float64) float64 {
	t.Helper()
	m, err := h.Bind(name)
	require.NoError(t, err)
	v, err := m.Modulate(ts, random, previous)
	require.NoError(t, err)
	return v
}

func writeScript(t *testing.T, dir, name, source string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".lua"), []byte(source), 0o644))
}

func TestDefaultFunctions(t *testing.T) {
	h := loadDefault(t)

	assert.Equal(t, []string{
		"depthSine", "meander", "noiseMeander", "noiseSawtooth", "noiseSine",
		"noiseTriangle", "sawtooth", "sine", "smoothNoise", "solidNoise", "triangle",
	}, h.Functions())
	assert.Equal(t, DefaultScript, h.Script())
}

func TestDefaultWaveforms(t *testing.T) {
	h := loadDefault(t)
	h.SetParams(100, 1)

	tests := []struct {
		name     string
		t        float64
		random   float64
		previous float64
		want     float64
	}{
		{"solidNoise", 0.123, -0.4, 0, -0.4},
		{"meander", 0.001, 0, 0, -1},
		{"meander", 0.006, 0, 0, 1},
		{"noiseMeander", 0.001, 0.8, 0, 0},
		{"noiseMeander", 0.006, 0.8, 0, 0.8},
		{"sine", 0, 0.5, 0, 0},
		{"sine", 0.0025, 0.5, 0, 1},
		{"sine", 0.0075, 0.5, 0, -1},
		{"noiseSine", 0.0025, 0.5, 0, 0.5},
		{"sawtooth", 0, 0, 0, -1},
		{"sawtooth", 0.005, 0, 0, 0},
		{"noiseSawtooth", 0.005, 0.6, 0, 0.3},
		{"triangle", 0, 0, 0, -1},
		{"triangle", 0.0025, 0, 0, 0},
		{"triangle", 0.005, 0, 0, 1},
		{"noiseTriangle", 0.005, -0.2, 0, -0.2},
		{"smoothNoise", 0, 1, 0, 0.1},
		{"depthSine", 0.0025, 0.5, 0, 0.5},
		{"depthSine", 0.0075, 0.5, 0, 0},
	}

	for _, tt := range tests {
		got := call(t, h, tt.name, tt.t, tt.random, tt.previous)
		assert.InDelta(t, tt.want, got, 1e-9, "%s(t=%v, random=%v)", tt.name, tt.t, tt.random)
	}
}

func TestDefaultWaveformsStayInRange(t *testing.T) {
	h := loadDefault(t)
	h.SetParams(441, 0.7)

	for _, name := range h.Functions() {
		m, err := h.Bind(name)
		require.NoError(t, err)

		previous := 0.0
		for i := range 2000 {
			random := math.Sin(float64(i) * 1.7)
			v, err := m.Modulate(float64(i)/44100, random, previous)
			require.NoError(t, err, name)
			require.GreaterOrEqual(t, v, -1.0, "%s at frame %d", name, i)
			require.LessOrEqual(t, v, 1.0, "%s at frame %d", name, i)
			previous = v
		}
	}
}

func TestModulate(t *testing.T) {
	tests := []struct {
		base, wave, depth, want float64
	}{
		{0.5, 1, 1, 0.5},
		{0.5, -1, 1, 0},
		{0.5, -1, 0, 0.5},
		{0.5, 0, 0.5, 0.375},
		{-0.5, 1, 1, 0},
		{-0.5, -1, 1, -0.5},
		{-0.5, 0, 0.5, -0.375},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Modulate(tt.base, tt.wave, tt.depth), 1e-12,
			"Modulate(%v, %v, %v)", tt.base, tt.wave, tt.depth)
	}
}

func TestSetParamsIsLive(t *testing.T) {
	h := loadDefault(t)
	m, err := h.Bind("sawtooth")
	require.NoError(t, err)

	h.SetParams(100, 1)
	v, err := m.Modulate(0.0025, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, v, 1e-9)

	h.SetParams(200, 1)
	v, err = m.Modulate(0.0025, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-9)

	h.SetParams(200, 3)
	freq, depth := h.Params()
	assert.Equal(t, 200.0, freq)
	assert.Equal(t, 1.0, depth)
}

func TestParamsSurviveReload(t *testing.T) {
	h := NewHost()
	defer h.Close()

	h.SetParams(50, 0.25)
	require.NoError(t, h.Load(DefaultScript, ""))

	// sawtooth at a quarter period of 50 Hz
	assert.InDelta(t, -0.5, call(t, h, "sawtooth", 0.005, 0, 0), 1e-9)
}

func TestBindUnknown(t *testing.T) {
	h := NewHost()
	defer h.Close()

	_, err := h.Bind("sine")
	assert.True(t, errors.Is(err, ErrUnknownFunction))

	require.NoError(t, h.Load(DefaultScript, ""))

	for _, name := range []string{"nope", "print", "math"} {
		_, err = h.Bind(name)
		assert.True(t, errors.Is(err, ErrUnknownFunction), "%s: %v", name, err)
	}
}

func TestBindingGoesStale(t *testing.T) {
	h := NewHost()
	require.NoError(t, h.Load(DefaultScript, ""))

	m, err := h.Bind("sine")
	require.NoError(t, err)

	require.NoError(t, h.Load(DefaultScript, ""))
	_, err = m.Modulate(0, 0, 0)
	assert.True(t, errors.Is(err, ErrStaleBinding))

	m, err = h.Bind("sine")
	require.NoError(t, err)
	h.Close()
	_, err = m.Modulate(0, 0, 0)
	assert.True(t, errors.Is(err, ErrStaleBinding))
	assert.Nil(t, h.Functions())
}

func TestScriptErrors(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken", `
function boom(t, random, previous)
  error("boom")
end

function text(t, random, previous)
  return "loud"
end

function nothing(t, random, previous)
end
`)

	h := NewHost()
	defer h.Close()
	require.NoError(t, h.Load("broken", dir))

	m, err := h.Bind("boom")
	require.NoError(t, err)
	_, err = m.Modulate(0, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	for _, name := range []string{"text", "nothing"} {
		m, err = h.Bind(name)
		require.NoError(t, err)
		_, err = m.Modulate(0, 0, 0)
		assert.True(t, errors.Is(err, ErrNotNumber), "%s: %v", name, err)
	}

	// the state stays usable after a failed call
	m, err = h.Bind("boom")
	require.NoError(t, err)
	_, err = m.Modulate(0, 0, 0)
	assert.Error(t, err)
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "syntax", "function (")

	h := NewHost()
	defer h.Close()
	require.NoError(t, h.Load(DefaultScript, dir))

	err := h.Load("syntax", dir)
	require.Error(t, err)
	assert.Equal(t, DefaultScript, h.Script(), "failed load must keep the previous script")
	assert.NotEmpty(t, h.Functions())

	err = h.Load("missing", dir)
	assert.True(t, errors.Is(err, ErrUnknownScript))

	err = h.Load("../etc/passwd", dir)
	assert.True(t, errors.Is(err, ErrUnknownScript))
}

func TestScriptsSandboxed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "escape", `
function probe(t, random, previous)
  if os == nil and io == nil then
    return 1
  end
  return -1
end
`)

	h := NewHost()
	defer h.Close()
	require.NoError(t, h.Load("escape", dir))
	assert.Equal(t, 1.0, call(t, h, "probe", 0, 0, 0))
}

func TestBindingsShareScriptGlobals(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "counter", `
calls = 0
function count(t, random, previous)
  calls = calls + 1
  return calls / 10
end
`)

	h := NewHost()
	defer h.Close()
	require.NoError(t, h.Load("counter", dir))

	playback, err := h.Bind("count")
	require.NoError(t, err)
	listener, err := h.Bind("count")
	require.NoError(t, err)

	v, err := playback.Modulate(0, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, v, 1e-12)

	// a second stream sees the global the first one changed
	v, err = listener.Modulate(0, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, v, 1e-12)
}

func TestDirectoryOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, DefaultScript, "function flat(t, random, previous) return 0.25 end")

	h := NewHost()
	defer h.Close()
	require.NoError(t, h.Load(DefaultScript, dir))
	assert.Equal(t, []string{"flat"}, h.Functions())
}

func TestScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "zeta", "")
	writeScript(t, dir, "alpha", "")
	writeScript(t, dir, DefaultScript, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.lua"), 0o755))

	names, err := Scripts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultScript, "alpha", "zeta"}, names)

	names, err = Scripts(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultScript}, names)

	names, err = Scripts("")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultScript}, names)
}
