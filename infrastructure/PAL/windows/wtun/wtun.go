//go:build windows

package wtun

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"multitun/application/network/tun"

	"golang.org/x/sys/windows"
	"golang.zx2c4.com/wintun"
	"golang.zx2c4.com/wireguard/windows/tunnel/winipcfg"
)

const (
	ringSize   = 8 << 20 // 8 MiB (within wintun's RingCapacityMin..Max)
	tunnelType = "multitun"
)

var ErrClosed = errors.New("wintun device closed")

// TUN is a Wintun adapter with a single ring session.
// Reads wait on the session read event and a manual-reset close event.
type TUN struct {
	adapter    *wintun.Adapter
	session    wintun.Session
	readEvent  windows.Handle
	closeEvent windows.Handle

	// mu guards the session against End while an operation is in flight.
	mu      sync.RWMutex
	closed  bool
	writeMu sync.Mutex
	once    sync.Once
}

var _ tun.Device = (*TUN)(nil)

// Open creates the adapter, starts its session and assigns address and MTU.
func Open(settings tun.Settings) (tun.Device, error) {
	adapter, err := wintun.CreateAdapter(settings.Name, tunnelType, nil)
	if err != nil {
		return nil, fmt.Errorf("create adapter: %w", err)
	}
	closeEvent, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("create close event: %w", err)
	}
	session, err := adapter.StartSession(ringSize)
	if err != nil {
		_ = windows.CloseHandle(closeEvent)
		_ = adapter.Close()
		return nil, fmt.Errorf("start session: %w", err)
	}
	t := &TUN{
		adapter:    adapter,
		session:    session,
		readEvent:  session.ReadWaitEvent(),
		closeEvent: closeEvent,
	}
	if err := configure(winipcfg.LUID(adapter.LUID()), settings); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

func configure(luid winipcfg.LUID, settings tun.Settings) error {
	prefix, err := settings.Prefix()
	if err != nil {
		return err
	}
	family := winipcfg.AddressFamily(windows.AF_INET)
	if err := luid.SetIPAddressesForFamily(family, []netip.Prefix{prefix}); err != nil {
		return fmt.Errorf("set address %s: %w", prefix, err)
	}
	if !prefix.Contains(settings.PeerAddress) {
		peer := netip.PrefixFrom(settings.PeerAddress, 32)
		if err := luid.AddRoute(peer, netip.IPv4Unspecified(), 0); err != nil {
			return fmt.Errorf("add route to peer %s: %w", settings.PeerAddress, err)
		}
	}
	iface, err := luid.IPInterface(family)
	if err != nil {
		return err
	}
	iface.NLMTU = uint32(settings.MTU)
	return iface.Set()
}

// Read blocks until a packet arrives or the device is closed. It never truncates.
func (t *TUN) Read(dst []byte) (int, error) {
	for {
		t.mu.RLock()
		if t.closed {
			t.mu.RUnlock()
			return 0, ErrClosed
		}
		packet, err := t.session.ReceivePacket()
		if err == nil {
			if len(packet) > len(dst) {
				t.session.ReleaseReceivePacket(packet)
				t.mu.RUnlock()
				return 0, tun.ErrPacketTooLarge
			}
			n := copy(dst, packet)
			t.session.ReleaseReceivePacket(packet)
			t.mu.RUnlock()
			return n, nil
		}
		t.mu.RUnlock()

		if !errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
			return 0, err
		}
		status, err := windows.WaitForMultipleObjects([]windows.Handle{t.readEvent, t.closeEvent}, false, windows.INFINITE)
		if err != nil {
			return 0, err
		}
		if status == windows.WAIT_OBJECT_0+1 {
			return 0, ErrClosed
		}
	}
}

// Write copies the packet into the send ring. Writers are serialized so only one
// send allocation is outstanding at a time.
func (t *TUN) Write(data []byte) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return 0, ErrClosed
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	packet, err := t.session.AllocateSendPacket(len(data))
	if err != nil {
		return 0, err
	}
	copy(packet, data)
	t.session.SendPacket(packet)
	return len(data), nil
}

func (t *TUN) Close() error {
	var err error
	t.once.Do(func() {
		_ = windows.SetEvent(t.closeEvent)
		t.mu.Lock()
		t.closed = true
		t.session.End()
		t.mu.Unlock()
		err = t.adapter.Close()
		_ = windows.CloseHandle(t.closeEvent)
	})
	return err
}
