package ip

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/net/ipv4"
)

// ErrNotIPv4 is returned for packets whose version nibble is not 4.
var ErrNotIPv4 = errors.New("not an IPv4 packet")

type HeaderParser struct{}

func NewHeaderParser() HeaderParser { return HeaderParser{} }

// DestinationAddress returns the IPv4 destination at header[16:20].
func (HeaderParser) DestinationAddress(header []byte) (netip.Addr, error) {
	if len(header) < 1 {
		return netip.Addr{}, fmt.Errorf("invalid packet: empty header")
	}
	if ver := header[0] >> 4; ver != ipv4.Version {
		return netip.Addr{}, fmt.Errorf("%w: version %d", ErrNotIPv4, ver)
	}
	if len(header) < ipv4.HeaderLen {
		return netip.Addr{}, fmt.Errorf("invalid IPv4 header: too small (%d bytes)", len(header))
	}
	ihl := int(header[0]&0x0F) * 4
	if ihl < ipv4.HeaderLen {
		return netip.Addr{}, fmt.Errorf("invalid IPv4 header: IHL=%d (<%d)", ihl, ipv4.HeaderLen)
	}
	if len(header) < ihl {
		return netip.Addr{}, fmt.Errorf("invalid IPv4 header: truncated (len=%d < IHL=%d)", len(header), ihl)
	}
	return netip.AddrFrom4([4]byte{header[16], header[17], header[18], header[19]}), nil
}
