package signal

import (
	"os"
	"syscall"

	"multitun/infrastructure/PAL/platform"
)

// Provider abstracts platform-specific signals
type Provider interface {
	ShutdownSignals() []os.Signal
}

type DefaultProvider struct {
	platform platform.Platform
}

func NewDefaultProvider(p platform.Platform) Provider {
	return DefaultProvider{platform: p}
}

// ShutdownSignals is Ctrl+C only on windows; unix also stops on TERM and HUP.
func (p DefaultProvider) ShutdownSignals() []os.Signal {
	if p.platform == platform.Windows {
		return []os.Signal{os.Interrupt}
	}
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
}
