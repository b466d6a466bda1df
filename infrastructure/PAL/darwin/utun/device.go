//go:build darwin || freebsd || openbsd

package utun

import (
	"errors"
	"sync"

	"multitun/application/network/tun"
)

// headerSize is the address-family prefix the kernel puts on every utun frame.
const headerSize = 4

// vectorDevice is the subset of wireguard's tun.Device used here.
type vectorDevice interface {
	Read(bufs [][]byte, sizes []int, offset int) (int, error)
	Write(bufs [][]byte, offset int) (int, error)
	Close() error
}

// Device wraps a wireguard/tun device with preallocated buffers. Read strips the
// family header and Write leaves room for the driver to fill it in.
type Device struct {
	device vectorDevice

	readMu      sync.Mutex
	readBuffer  []byte
	writeMu     sync.Mutex
	writeBuffer []byte
}

var _ tun.Device = (*Device)(nil)

func NewDevice(device vectorDevice) *Device {
	return &Device{
		device:      device,
		readBuffer:  make([]byte, headerSize+tun.MaximumMTU),
		writeBuffer: make([]byte, headerSize+tun.MaximumMTU),
	}
}

func (d *Device) Read(p []byte) (int, error) {
	d.readMu.Lock()
	defer d.readMu.Unlock()

	bufs, sizes := [][]byte{d.readBuffer}, []int{0}
	if _, err := d.device.Read(bufs, sizes, headerSize); err != nil {
		return 0, err
	}
	n := sizes[0]
	if n > len(p) {
		return 0, tun.ErrPacketTooLarge
	}
	return copy(p, d.readBuffer[headerSize:headerSize+n]), nil
}

func (d *Device) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, errors.New("empty packet")
	}
	if len(p) > tun.MaximumMTU {
		return 0, tun.ErrPacketTooLarge
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	copy(d.writeBuffer[headerSize:], p)
	if _, err := d.device.Write([][]byte{d.writeBuffer[:headerSize+len(p)]}, headerSize); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *Device) Close() error { return d.device.Close() }
