package tun

import "errors"

var (
	// ErrDeviceUnavailable is returned when a virtual interface cannot be opened or configured.
	// It is fatal: callers must not retry.
	ErrDeviceUnavailable = errors.New("virtual interface unavailable")
	// ErrPacketTooLarge is returned when a packet exceeding the configured MTU is written.
	ErrPacketTooLarge = errors.New("packet exceeds interface MTU")
	// ErrUnsupportedPlatform is returned when no device implementation exists for the platform.
	ErrUnsupportedPlatform = errors.New("no virtual interface implementation for platform")
)

// Device provides a single and trivial API for any supported tun devices.
// Read returns exactly one IP packet per call.
type Device interface {
	Read(data []byte) (int, error)
	Write(data []byte) (int, error)
	Close() error
}

// Factory opens and configures a virtual interface.
type Factory interface {
	Open(settings Settings) (Device, error)
}
