package cli

import (
	"errors"
	"fmt"
	"testing"

	"multitun/application/network/tun"
	"multitun/domain/mode"
	"multitun/infrastructure/PAL/configuration"
	"multitun/presentation/elevation"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, ExitOK},
		{"generic", errors.New("boom"), ExitFailure},
		{"config missing", fmt.Errorf("multitun.toml: %w", configuration.ErrConfigurationMissing), ExitConfiguration},
		{"config invalid", fmt.Errorf("x: %w", configuration.ErrInvalidConfiguration), ExitConfiguration},
		{"device", fmt.Errorf("%w: mt0: busy", tun.ErrDeviceUnavailable), ExitDeviceUnavailable},
		{"platform", mode.NewUnsupportedPlatform(mode.Server, "plan9"), ExitDeviceUnavailable},
		{"privilege", elevation.Require(fakeElevation{}), ExitInsufficientAccess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
