//go:build !windows

package elevation

import "os"

// ProcessElevationImpl implements ProcessElevation on unix-like systems.
type ProcessElevationImpl struct{}

func NewProcessElevation() ProcessElevation {
	return ProcessElevationImpl{}
}

// IsElevated returns true if we're running as root.
func (ProcessElevationImpl) IsElevated() bool {
	return os.Geteuid() == 0
}

func (ProcessElevationImpl) Hint() string {
	return "Please restart the application as root (for example with sudo)."
}
