//go:build darwin || freebsd || openbsd

package utun

import (
	"fmt"

	"multitun/application/network/tun"
	"multitun/infrastructure/PAL/exec_commander"

	wgtun "golang.zx2c4.com/wireguard/tun"
)

type Opener struct {
	commander exec_commander.Commander
}

func NewOpener(commander exec_commander.Commander) Opener {
	return Opener{commander: commander}
}

func (o Opener) Open(settings tun.Settings) (tun.Device, error) {
	dev, err := wgtun.CreateTUN(deviceName(settings.Name), settings.MTU)
	if err != nil {
		return nil, fmt.Errorf("failed to create utun device: %w", err)
	}
	name, err := dev.Name()
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("failed to read utun device name: %w", err)
	}
	if err := configure(o.commander, name, settings); err != nil {
		_ = dev.Close()
		return nil, err
	}
	return NewDevice(dev), nil
}
