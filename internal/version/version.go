// ABOUTME: Version constants for WaveGen binaries
// ABOUTME: Reported in the monitor handshake and the TUI header
package version

const (
	Version      = "0.3.0"
	Product      = "WaveGen"
	Manufacturer = "kb1p"
)

// String returns the product name and version, e.g. "WaveGen 0.3.0"
func String() string {
	return Product + " " + Version
}
