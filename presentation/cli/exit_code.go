package cli

import (
	"errors"

	"multitun/application/network/tun"
	"multitun/domain/mode"
	"multitun/infrastructure/PAL/configuration"
	"multitun/presentation/elevation"
)

// Process exit statuses.
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitConfiguration      = 2
	ExitDeviceUnavailable  = 3
	ExitInsufficientAccess = 4
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var unsupported mode.UnsupportedPlatform
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, configuration.ErrConfigurationMissing),
		errors.Is(err, configuration.ErrInvalidConfiguration):
		return ExitConfiguration
	case errors.Is(err, elevation.ErrNotElevated):
		return ExitInsufficientAccess
	case errors.Is(err, tun.ErrDeviceUnavailable),
		errors.As(err, &unsupported):
		return ExitDeviceUnavailable
	default:
		return ExitFailure
	}
}
