package session

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"multitun/application/network/connection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverFixture struct {
	registry *Registry
	device   *fakeDevice
	metrics  *fakeMetrics
	logger   *fakeLogger
}

func newServerFixture() *serverFixture {
	metrics := newFakeMetrics()
	logger := &fakeLogger{}
	return &serverFixture{
		registry: NewRegistry(logger, metrics),
		device:   &fakeDevice{},
		metrics:  metrics,
		logger:   logger,
	}
}

func (f *serverFixture) newSession(t *testing.T, name string) (*Session, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	s := New(Config{
		Role:      connection.RoleServer,
		Name:      name,
		Transport: tr,
		Factory:   &fakeFactory{},
		Device:    f.device,
		Registrar: f.registry,
		Logger:    f.logger,
		Metrics:   f.metrics,
	})
	require.NoError(t, s.Open())
	t.Cleanup(s.Close)
	return s, tr
}

// connect opens a server session and completes the hello for addr.
func (f *serverFixture) connect(t *testing.T, name, addr string) (*Session, *fakeTransport) {
	t.Helper()
	s, tr := f.newSession(t, name)
	s.OnInboundMessage([]byte("hello:" + addr))
	require.Equal(t, []byte("reply"), expectWrite(t, tr))
	return s, tr
}

func TestSession_OpenDoesNotRegister(t *testing.T) {
	f := newServerFixture()
	s, tr := f.newSession(t, "peer")

	assert.Equal(t, Open, s.State())
	assert.Equal(t, 0, f.registry.Len())
	assert.False(t, s.Address().IsValid())
	expectNoWrite(t, tr)
}

func TestSession_HelloRegistersDeclaredAddress(t *testing.T) {
	f := newServerFixture()
	s, _ := f.connect(t, "peer", "10.8.0.2")

	got, found := f.registry.Lookup(netip.MustParseAddr("10.8.0.2"))
	require.True(t, found)
	assert.Same(t, s, got)
	assert.Equal(t, netip.MustParseAddr("10.8.0.2"), s.Address())
}

func TestSession_InboundDataIsWrittenToDevice(t *testing.T) {
	f := newServerFixture()
	s, _ := f.connect(t, "peer", "10.8.0.2")

	packet := ipv4To("10.8.0.1", 1, 2, 3)
	s.OnInboundMessage(sealFor(connection.RoleClient, packet))

	require.Equal(t, [][]byte{packet}, f.device.written())
	assert.Equal(t, 1, f.metrics.delivered)
}

func TestSession_DecryptFailureNeverWritesDevice(t *testing.T) {
	f := newServerFixture()
	s, tr := f.connect(t, "peer", "10.8.0.2")

	for _, garbage := range [][]byte{{0xff, 1, 2}, sealFor(connection.RoleServer, []byte("mirror")), {}} {
		s.OnInboundMessage(garbage)
	}

	assert.Empty(t, f.device.written())
	assert.Equal(t, Open, s.State())
	assert.Equal(t, 3, f.metrics.drops(DropDecryptFailure))
	expectNoWrite(t, tr)
}

func TestSession_FailedHelloIsSilent(t *testing.T) {
	f := newServerFixture()
	s, tr := f.newSession(t, "scanner")

	s.OnInboundMessage([]byte("GET / HTTP/1.1"))
	s.OnInboundMessage([]byte{0, 1, 2, 3})

	assert.Equal(t, Open, s.State(), "a scanner is kept open and ignored")
	assert.Equal(t, 0, f.registry.Len())
	assert.Equal(t, 2, f.metrics.drops(DropHandshake))
	expectNoWrite(t, tr)
}

func TestSession_DecryptFailureAndRoutingMissAreIndistinguishable(t *testing.T) {
	f := newServerFixture()
	victim, victimTr := f.connect(t, "victim", "10.8.0.2")

	// Routing miss: packet for an address nobody owns.
	f.registry.RouteFromInterface(ipv4To("10.8.0.9"))
	// Decrypt failure: garbage on an established session.
	victim.OnInboundMessage([]byte{0xde, 0xad, 0xbe, 0xef})

	expectNoWrite(t, victimTr)
	assert.Empty(t, f.device.written())
	assert.Equal(t, Open, victim.State())
	assert.Equal(t, 1, f.metrics.drops(DropRoutingMiss))
	assert.Equal(t, 1, f.metrics.drops(DropDecryptFailure))
}

func TestSession_SecondSessionForBoundAddressIsRejected(t *testing.T) {
	f := newServerFixture()
	first, firstTr := f.connect(t, "first", "10.8.0.2")
	second, secondTr := f.newSession(t, "second")

	// Interleave traffic of the bound session with the rejected registration.
	f.registry.RouteFromInterface(ipv4To("10.8.0.2", 1))
	second.OnInboundMessage([]byte("hello:10.8.0.2"))
	first.OnInboundMessage(sealFor(connection.RoleClient, ipv4To("10.8.0.1", 2)))
	f.registry.RouteFromInterface(ipv4To("10.8.0.2", 3))

	assert.Equal(t, Closed, second.State())
	got, found := f.registry.Lookup(netip.MustParseAddr("10.8.0.2"))
	require.True(t, found)
	assert.Same(t, first, got)
	assert.Equal(t, Open, first.State())

	assert.Equal(t, sealFor(connection.RoleServer, ipv4To("10.8.0.2", 1)), expectWrite(t, firstTr))
	assert.Equal(t, sealFor(connection.RoleServer, ipv4To("10.8.0.2", 3)), expectWrite(t, firstTr))
	assert.Equal(t, [][]byte{ipv4To("10.8.0.1", 2)}, f.device.written())

	select {
	case <-second.Done():
	case <-time.After(waitTimeout):
		t.Fatal("rejected session was not released")
	}
	assert.True(t, secondTr.isClosed())
	assert.False(t, firstTr.isClosed())
}

func TestSession_CloseUnregistersAndReleasesTransport(t *testing.T) {
	f := newServerFixture()
	s, tr := f.connect(t, "peer", "10.8.0.2")

	s.Close()
	s.Close()

	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 0, f.registry.Len())
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("transport was not released")
	}
	assert.True(t, tr.isClosed())
	assert.Equal(t, 1, f.metrics.closed)

	f.registry.RouteFromInterface(ipv4To("10.8.0.2"))
	expectNoWrite(t, tr)
	assert.Equal(t, 1, f.metrics.drops(DropRoutingMiss))
}

func TestSession_WriteErrorIsAbsorbed(t *testing.T) {
	f := newServerFixture()
	f.device.err = errors.New("device gone")
	s, _ := f.connect(t, "peer", "10.8.0.2")

	s.OnInboundMessage(sealFor(connection.RoleClient, ipv4To("10.8.0.1")))

	assert.Equal(t, Open, s.State())
	assert.Equal(t, 1, f.metrics.drops(DropWriteError))
}

func TestSession_OpenFailsWhenChannelCannotBeBuilt(t *testing.T) {
	tr := newFakeTransport()
	s := New(Config{
		Role:      connection.RoleServer,
		Name:      "peer",
		Transport: tr,
		Factory:   &fakeFactory{err: errors.New("no keys")},
		Device:    &fakeDevice{},
		Registrar: NewRegistry(&fakeLogger{}, nil),
		Logger:    &fakeLogger{},
	})

	require.Error(t, s.Open())
	assert.Equal(t, Closed, s.State())
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("transport was not released")
	}
}

func TestSession_OutboundQueueFullDrops(t *testing.T) {
	f := newServerFixture()
	tr := newFakeTransport()
	tr.release = make(chan struct{})
	s := New(Config{
		Role:      connection.RoleServer,
		Name:      "slow",
		Transport: tr,
		Factory:   &fakeFactory{},
		Device:    f.device,
		Registrar: f.registry,
		Logger:    f.logger,
		Metrics:   f.metrics,
		QueueSize: 1,
	})
	require.NoError(t, s.Open())
	defer s.Close()
	s.OnInboundMessage([]byte("hello:10.8.0.2"))

	for i := 0; i < 4; i++ {
		s.SendPacket(ipv4To("10.8.0.2", byte(i)))
	}
	assert.GreaterOrEqual(t, f.metrics.drops(DropQueueFull), 1)
	assert.Equal(t, Open, s.State())
}

func TestClientSession_HelloThenTraffic(t *testing.T) {
	tr := newFakeTransport()
	device := &fakeDevice{}
	metrics := newFakeMetrics()
	s := New(Config{
		Role:      connection.RoleClient,
		Name:      "client",
		Transport: tr,
		Factory:   &fakeFactory{address: netip.MustParseAddr("10.8.0.2")},
		Device:    device,
		Logger:    &fakeLogger{},
		Metrics:   metrics,
	})
	require.NoError(t, s.Open())
	defer s.Close()

	assert.Equal(t, []byte("hello:10.8.0.2"), expectWrite(t, tr))

	s.SendPacket(ipv4To("10.8.0.1"))
	expectNoWrite(t, tr)
	assert.Equal(t, 1, metrics.drops(DropEncryptionUnavailable))

	s.OnInboundMessage([]byte("reply"))

	// No address filtering on the client: every destination goes to the single session.
	for _, dst := range []string{"10.8.0.1", "10.8.0.9", "192.0.2.7"} {
		s.SendPacket(ipv4To(dst))
		assert.Equal(t, sealFor(connection.RoleClient, ipv4To(dst)), expectWrite(t, tr))
	}

	s.OnInboundMessage(sealFor(connection.RoleServer, []byte("pong")))
	assert.Equal(t, [][]byte{[]byte("pong")}, device.written())
}

func TestSession_PumpFeedsLoopAndClosesOnEOF(t *testing.T) {
	f := newServerFixture()
	s, tr := f.connect(t, "peer", "10.8.0.2")
	loop := &taskLoop{tasks: make(chan func(), 4)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Pump(ctx, loop)

	packet := ipv4To("10.8.0.1", 7)
	tr.inbound <- sealFor(connection.RoleClient, packet)
	loop.runOne(t)
	assert.Equal(t, [][]byte{packet}, f.device.written())

	require.NoError(t, tr.Close())
	loop.runOne(t)
	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 0, f.registry.Len())
}
