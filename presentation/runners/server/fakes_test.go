package server

import (
	"bytes"
	"context"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"multitun/application/network/tun"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// chanDevice is a virtual interface whose traffic is driven by the test.
type chanDevice struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newChanDevice() *chanDevice {
	return &chanDevice{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (d *chanDevice) Read(p []byte) (int, error) {
	select {
	case packet := <-d.in:
		return copy(p, packet), nil
	case <-d.closed:
		return 0, os.ErrClosed
	}
}

func (d *chanDevice) Write(p []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, os.ErrClosed
	case d.out <- append([]byte(nil), p...):
		return len(p), nil
	default:
		return len(p), nil
	}
}

func (d *chanDevice) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}

func (d *chanDevice) isClosed() bool {
	select {
	case <-d.closed:
		return true
	default:
		return false
	}
}

type deviceFactory struct {
	device tun.Device
	err    error
}

func (f deviceFactory) Open(tun.Settings) (tun.Device, error) {
	return f.device, f.err
}

// listenerDeps serves on a listener opened by the test.
type listenerDeps struct {
	AppDependencies
	ln      net.Listener
	listens int
}

func (d *listenerDeps) Listen(context.Context) (net.Listener, error) {
	d.listens++
	return d.ln, nil
}

func udpPacket(t *testing.T, src, dst string, payload []byte) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	udp := &layers.UDP{SrcPort: 40000, DstPort: 53}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func expectPacket(t *testing.T, d *chanDevice) []byte {
	t.Helper()
	select {
	case packet := <-d.out:
		return packet
	case <-time.After(5 * time.Second):
		t.Fatal("no packet written to the interface")
		return nil
	}
}

func expectNoPacket(t *testing.T, d *chanDevice) {
	t.Helper()
	select {
	case packet := <-d.out:
		t.Fatalf("unexpected packet written to the interface: %x", packet)
	case <-time.After(100 * time.Millisecond):
	}
}

// waitForTunnel keeps injecting packet into from until it comes out of to.
// Packets sent before the handshake completes are dropped by the sender, and
// retries of earlier waits may still arrive first.
func waitForTunnel(t *testing.T, from, to *chanDevice, packet []byte) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case got := <-to.out:
			if bytes.Equal(packet, got) {
				return
			}
		case <-ticker.C:
			select {
			case from.in <- packet:
			default:
			}
		case <-deadline:
			t.Fatal("tunnel was not established")
		}
	}
}

// expectPacketAfter skips earlier traffic until want is written to d.
func expectPacketAfter(t *testing.T, d *chanDevice, want []byte) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-d.out:
			if string(got) == string(want) {
				return
			}
		case <-deadline:
			t.Fatal("packet was not written to the interface")
		}
	}
}
