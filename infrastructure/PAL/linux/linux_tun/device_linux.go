//go:build linux

package linux_tun

import (
	"fmt"
	"net"

	"multitun/application/network/tun"

	"github.com/songgao/water"
	"github.com/vishvananda/netlink"
)

// Device is a Linux TUN interface opened through /dev/net/tun without packet information.
type Device struct {
	*water.Interface
	link netlink.Link
}

var _ tun.Device = (*Device)(nil)

// Open creates the interface, assigns the point-to-point addresses and MTU and brings it up.
func Open(settings tun.Settings) (d tun.Device, err error) {
	iface, err := water.New(water.Config{
		DeviceType: water.TUN,
		PlatformSpecificParams: water.PlatformSpecificParams{
			Name:    settings.Name,
			Persist: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create TUN device %s: %w", settings.Name, err)
	}
	defer func() {
		if err != nil {
			_ = iface.Close()
		}
	}()

	link, err := netlink.LinkByName(iface.Name())
	if err != nil {
		return nil, fmt.Errorf("newly created TUN device '%s' not found: %w", iface.Name(), err)
	}
	device := &Device{Interface: iface, link: link}
	if err = device.configure(settings); err != nil {
		return nil, err
	}
	return device, nil
}

func (d *Device) configure(settings tun.Settings) error {
	addr, err := Addr(settings)
	if err != nil {
		return err
	}
	if err := netlink.AddrAdd(d.link, addr); err != nil {
		return fmt.Errorf("failed to assign %s to %s: %w", settings.LocalAddress, d.Name(), err)
	}
	if err := netlink.LinkSetMTU(d.link, settings.MTU); err != nil {
		return fmt.Errorf("failed to set %d MTU for %s: %w", settings.MTU, d.Name(), err)
	}
	if err := netlink.LinkSetUp(d.link); err != nil {
		return fmt.Errorf("failed to bring TUN device '%s' up: %w", d.Name(), err)
	}
	return nil
}

// Addr builds the local address with its netmask and the /32 peer.
func Addr(settings tun.Settings) (*netlink.Addr, error) {
	bits, err := settings.PrefixLen()
	if err != nil {
		return nil, err
	}
	local := settings.LocalAddress.As4()
	peer := settings.PeerAddress.As4()
	return &netlink.Addr{
		IPNet: &net.IPNet{IP: net.IP(local[:]), Mask: net.CIDRMask(bits, 32)},
		Peer:  &net.IPNet{IP: net.IP(peer[:]), Mask: net.CIDRMask(32, 32)},
	}, nil
}
