package chacha20

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/netip"
	"sort"
	"time"

	"multitun/application/network/connection"
)

var _ connection.ChannelFactory = (*Factory)(nil)

type user struct {
	address netip.Addr
	psk     [32]byte
}

// Factory constructs channels for one process. A server factory knows every user's
// password, a client factory knows its own address and password.
type Factory struct {
	users  []user
	filter *helloFilter

	address netip.Addr
	psk     [32]byte
	client  bool

	rand io.Reader
	now  func() time.Time
}

func NewServerFactory(users map[netip.Addr]string) (*Factory, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("server channel factory: no users")
	}
	f := &Factory{
		filter: newHelloFilter(2 * HelloSkew),
		rand:   rand.Reader,
		now:    time.Now,
	}
	for addr, password := range users {
		if !addr.Is4() {
			return nil, fmt.Errorf("server channel factory: user address %s is not IPv4", addr)
		}
		if password == "" {
			return nil, fmt.Errorf("server channel factory: user %s: %w", addr, ErrEmptyPassword)
		}
		f.users = append(f.users, user{address: addr, psk: stretchPassword(password)})
	}
	sort.Slice(f.users, func(i, j int) bool { return f.users[i].address.Less(f.users[j].address) })
	return f, nil
}

func NewClientFactory(address netip.Addr, password string) (*Factory, error) {
	if !address.Is4() {
		return nil, fmt.Errorf("client channel factory: address %s is not IPv4", address)
	}
	if password == "" {
		return nil, fmt.Errorf("client channel factory: %w", ErrEmptyPassword)
	}
	return &Factory{
		address: address,
		psk:     stretchPassword(password),
		client:  true,
		rand:    rand.Reader,
		now:     time.Now,
	}, nil
}

func (f *Factory) NewChannel(role connection.Role) (connection.Channel, error) {
	ch := &Channel{role: role, rand: f.rand, now: f.now}
	switch role {
	case connection.RoleServer:
		if len(f.users) == 0 {
			return nil, fmt.Errorf("no users configured for %s channel", role)
		}
		ch.users, ch.filter = f.users, f.filter
	case connection.RoleClient:
		if !f.client {
			return nil, fmt.Errorf("no credentials configured for %s channel", role)
		}
		ch.address, ch.psk = f.address, f.psk
	default:
		return nil, fmt.Errorf("unknown channel role %d", role)
	}
	return ch, nil
}
