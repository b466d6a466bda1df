package tun

import (
	"fmt"
	"net/netip"
)

const (
	DefaultMTU = 1500
	// MinimumMTU is the smallest MTU every IPv4 host must accept.
	MinimumMTU = 576
	MaximumMTU = 65535
)

// Settings describe a virtual interface at open time.
type Settings struct {
	Name         string
	LocalAddress netip.Addr
	PeerAddress  netip.Addr
	Netmask      netip.Addr
	MTU          int
}

func (s Settings) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("interface name is empty")
	}
	if !s.LocalAddress.Is4() {
		return fmt.Errorf("local address %q is not IPv4", s.LocalAddress)
	}
	if !s.PeerAddress.Is4() {
		return fmt.Errorf("peer address %q is not IPv4", s.PeerAddress)
	}
	if _, err := s.PrefixLen(); err != nil {
		return err
	}
	if s.MTU < MinimumMTU || s.MTU > MaximumMTU {
		return fmt.Errorf("MTU %d out of range [%d, %d]", s.MTU, MinimumMTU, MaximumMTU)
	}
	return nil
}

// PrefixLen converts the dotted-quad netmask into a prefix length.
func (s Settings) PrefixLen() (int, error) {
	if !s.Netmask.Is4() {
		return 0, fmt.Errorf("netmask %q is not IPv4", s.Netmask)
	}
	b := s.Netmask.As4()
	mask := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	ones := 0
	for mask&0x80000000 != 0 {
		ones++
		mask <<= 1
	}
	if mask != 0 {
		return 0, fmt.Errorf("netmask %q is not contiguous", s.Netmask)
	}
	return ones, nil
}

// Prefix returns the local address with the netmask applied as prefix length.
func (s Settings) Prefix() (netip.Prefix, error) {
	bits, err := s.PrefixLen()
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(s.LocalAddress, bits), nil
}
