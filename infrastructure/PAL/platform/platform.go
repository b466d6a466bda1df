package platform

import "fmt"

// Platform identifies the host operating system family. It is resolved once at startup
// and passed explicitly to whatever needs to branch on it.
type Platform int

const (
	Unsupported Platform = iota
	Linux
	// Darwin covers macOS and the BSD family, which share the utun-style device.
	Darwin
	Windows
)

// Resolve maps a GOOS value to a Platform.
func Resolve(goos string) Platform {
	switch goos {
	case "linux":
		return Linux
	case "darwin", "freebsd", "openbsd", "netbsd", "dragonfly":
		return Darwin
	case "windows":
		return Windows
	default:
		return Unsupported
	}
}

// NativePoll reports whether device reads park on the runtime netpoller.
// When false, reads are blocking waits that need a dedicated OS thread.
func (p Platform) NativePoll() bool {
	return p == Linux || p == Darwin
}

func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	case Windows:
		return "windows"
	default:
		return fmt.Sprintf("unsupported(%d)", int(p))
	}
}
