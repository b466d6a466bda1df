package tun_device

import (
	"errors"
	"sync"

	"multitun/application/network/tun"
)

// MTUGuard enforces the reject policy: writes larger than the MTU fail without
// reaching the device and reads never yield more than MTU bytes.
type MTUGuard struct {
	device tun.Device
	mtu    int

	mu     sync.Mutex
	buffer []byte
}

func NewMTUGuard(device tun.Device, mtu int) tun.Device {
	return &MTUGuard{
		device: device,
		mtu:    mtu,
		buffer: make([]byte, mtu+1),
	}
}

// Read discards oversized packets and keeps reading until one fits.
func (g *MTUGuard) Read(data []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		n, err := g.device.Read(g.buffer)
		if errors.Is(err, tun.ErrPacketTooLarge) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n > g.mtu {
			continue
		}
		if n > len(data) {
			return 0, tun.ErrPacketTooLarge
		}
		return copy(data, g.buffer[:n]), nil
	}
}

func (g *MTUGuard) Write(data []byte) (int, error) {
	if len(data) > g.mtu {
		return 0, tun.ErrPacketTooLarge
	}
	return g.device.Write(data)
}

func (g *MTUGuard) Close() error {
	return g.device.Close()
}
