package tun_device

import (
	"errors"
	"fmt"

	"multitun/application/network/tun"
	"multitun/infrastructure/PAL/platform"
)

var _ tun.Factory = Factory{}

// Opener creates and configures a platform device.
type Opener func(settings tun.Settings) (tun.Device, error)

// Factory opens virtual interfaces with the strategy of one platform, chosen once.
type Factory struct {
	platform platform.Platform
	open     Opener
}

func NewFactory(p platform.Platform) Factory {
	return Factory{
		platform: p,
		open:     nativeOpeners()[p],
	}
}

func (f Factory) Platform() platform.Platform {
	return f.platform
}

// Open creates the interface, assigns its addresses and MTU, brings it up and
// guards it against packets larger than the MTU. Every failure wraps
// tun.ErrDeviceUnavailable.
func (f Factory) Open(settings tun.Settings) (tun.Device, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", tun.ErrDeviceUnavailable, err)
	}
	if f.open == nil {
		return nil, fmt.Errorf("%w: %w: %s", tun.ErrDeviceUnavailable, tun.ErrUnsupportedPlatform, f.platform)
	}
	device, err := f.open(settings)
	if err != nil {
		if errors.Is(err, tun.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", tun.ErrDeviceUnavailable, settings.Name, err)
	}
	return NewMTUGuard(device, settings.MTU), nil
}
