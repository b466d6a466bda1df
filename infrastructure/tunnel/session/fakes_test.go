package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"multitun/application/network/connection"
)

const waitTimeout = 2 * time.Second

type fakeLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *fakeLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, v...))
}

type fakeTransport struct {
	inbound chan []byte
	written chan []byte
	release chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		written: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (t *fakeTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case m := <-t.inbound:
		return m, nil
	case <-t.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) WriteMessage(ctx context.Context, data []byte) error {
	if t.release != nil {
		select {
		case <-t.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.written <- append([]byte(nil), data...)
	return nil
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

func expectWrite(t *testing.T, tr *fakeTransport) []byte {
	t.Helper()
	select {
	case m := <-tr.written:
		return m
	case <-time.After(waitTimeout):
		t.Fatal("expected a transport write")
		return nil
	}
}

func expectNoWrite(t *testing.T, tr *fakeTransport) {
	t.Helper()
	select {
	case m := <-tr.written:
		t.Fatalf("unexpected transport write: %q", m)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeChannel "encrypts" by prefixing a role marker so a mismatched peer cannot "decrypt".
// A hello is "hello:<addr>", the reply is "reply".
type fakeChannel struct {
	role        connection.Role
	address     netip.Addr
	established bool
}

func sealFor(from connection.Role, packet []byte) []byte {
	return append([]byte{byte(from)}, packet...)
}

func (c *fakeChannel) Encrypt(packet []byte) ([]byte, error) {
	if !c.established {
		return nil, connection.ErrEncryptionUnavailable
	}
	return sealFor(c.role, packet), nil
}

func (c *fakeChannel) Decrypt(ciphertext []byte) ([]byte, bool) {
	if !c.established || len(ciphertext) == 0 || connection.Role(ciphertext[0]) == c.role {
		return nil, false
	}
	if r := connection.Role(ciphertext[0]); r != connection.RoleServer && r != connection.RoleClient {
		return nil, false
	}
	return ciphertext[1:], true
}

func (c *fakeChannel) Established() bool { return c.established }

func (c *fakeChannel) AcceptHello(hello []byte) (netip.Addr, []byte, error) {
	rest, ok := strings.CutPrefix(string(hello), "hello:")
	if !ok {
		return netip.Addr{}, nil, connection.ErrHandshakeFailed
	}
	addr, err := netip.ParseAddr(rest)
	if err != nil {
		return netip.Addr{}, nil, connection.ErrHandshakeFailed
	}
	c.established = true
	return addr, []byte("reply"), nil
}

func (c *fakeChannel) Hello() ([]byte, error) {
	return []byte("hello:" + c.address.String()), nil
}

func (c *fakeChannel) CompleteHello(reply []byte) error {
	if !bytes.Equal(reply, []byte("reply")) {
		return connection.ErrHandshakeFailed
	}
	c.established = true
	return nil
}

type fakeFactory struct {
	address netip.Addr
	err     error
}

func (f *fakeFactory) NewChannel(role connection.Role) (connection.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fakeChannel{role: role, address: f.address}, nil
}

type fakeDevice struct {
	mu      sync.Mutex
	packets [][]byte
	err     error
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	d.packets = append(d.packets, append([]byte(nil), p...))
	return len(p), nil
}

func (d *fakeDevice) written() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.packets...)
}

type fakeMetrics struct {
	mu        sync.Mutex
	routed    int
	delivered int
	dropped   map[DropReason]int
	opened    int
	closed    int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{dropped: make(map[DropReason]int)} }

func (m *fakeMetrics) PacketRouted(int) { m.mu.Lock(); m.routed++; m.mu.Unlock() }
func (m *fakeMetrics) PacketDelivered(int) { m.mu.Lock(); m.delivered++; m.mu.Unlock() }
func (m *fakeMetrics) SessionOpened() { m.mu.Lock(); m.opened++; m.mu.Unlock() }
func (m *fakeMetrics) SessionClosed() { m.mu.Lock(); m.closed++; m.mu.Unlock() }
func (m *fakeMetrics) PacketDropped(reason DropReason) {
	m.mu.Lock()
	m.dropped[reason]++
	m.mu.Unlock()
}

func (m *fakeMetrics) drops(reason DropReason) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped[reason]
}

// taskLoop is a minimal Executor whose tasks are run by the test goroutine.
type taskLoop struct {
	tasks chan func()
}

func (l *taskLoop) Submit(ctx context.Context, task func()) error {
	select {
	case l.tasks <- task:
		return nil
	case <-ctx.Done():
		return errors.New("stopped")
	}
}

func (l *taskLoop) runOne(t *testing.T) {
	t.Helper()
	select {
	case task := <-l.tasks:
		task()
	case <-time.After(waitTimeout):
		t.Fatal("expected a task on the loop")
	}
}

// ipv4To builds a minimal IPv4 header addressed to dst.
func ipv4To(dst string, payload ...byte) []byte {
	h := make([]byte, 20, 20+len(payload))
	h[0] = 0x45
	a := netip.MustParseAddr(dst).As4()
	copy(h[16:20], a[:])
	return append(h, payload...)
}
