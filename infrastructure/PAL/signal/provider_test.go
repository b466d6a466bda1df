package signal

import (
	"os"
	"syscall"
	"testing"

	"multitun/infrastructure/PAL/platform"

	"github.com/stretchr/testify/assert"
)

func TestShutdownSignals_Unix_ExactSetAndOrder(t *testing.T) {
	for _, p := range []platform.Platform{platform.Linux, platform.Darwin} {
		got := NewDefaultProvider(p).ShutdownSignals()
		assert.Equal(t, []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}, got, p.String())
	}
}

func TestShutdownSignals_Windows(t *testing.T) {
	got := NewDefaultProvider(platform.Windows).ShutdownSignals()
	assert.Equal(t, []os.Signal{os.Interrupt}, got)
}
