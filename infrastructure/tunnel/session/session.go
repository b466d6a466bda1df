package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"

	"multitun/application/logging"
	"multitun/application/network/connection"
)

const DefaultQueueSize = 256

// Registrar is the non-owning reference a server session keeps to the registry that owns it.
type Registrar interface {
	Register(addr netip.Addr, s *Session) bool
	Unregister(s *Session)
}

// Executor runs tasks on the event loop goroutine.
type Executor interface {
	Submit(ctx context.Context, task func()) error
}

type Config struct {
	Role      connection.Role
	Name      string
	Transport connection.Transport
	Factory   connection.ChannelFactory
	// Device receives every packet this session decrypts.
	Device io.Writer
	// Registrar is required for server sessions and ignored for client sessions.
	Registrar Registrar
	Logger    logging.Logger
	Metrics   Metrics
	QueueSize int
}

// Session bridges one transport connection to the local virtual interface.
//
// Open, Close, OnInboundMessage and SendPacket must be called from the event loop
// goroutine only. The session owns two goroutines of its own: a writer draining the
// outbound queue and, once Pump is called, a reader feeding inbound messages back to
// the loop.
type Session struct {
	role      connection.Role
	name      string
	transport connection.Transport
	factory   connection.ChannelFactory
	device    io.Writer
	registrar Registrar
	logger    logging.Logger
	metrics   Metrics

	state   State
	channel connection.Channel
	address netip.Addr

	outbound chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(cfg Config) *Session {
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		role:      cfg.Role,
		name:      cfg.Name,
		transport: cfg.Transport,
		factory:   cfg.Factory,
		device:    cfg.Device,
		registrar: cfg.Registrar,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		state:     Connecting,
		outbound:  make(chan []byte, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (s *Session) State() State { return s.state }

func (s *Session) Role() connection.Role { return s.role }

// Address is the tunnel address bound by the handshake; invalid until then.
func (s *Session) Address() netip.Addr { return s.address }

func (s *Session) String() string {
	if s.address.IsValid() {
		return fmt.Sprintf("%s (%s)", s.name, s.address)
	}
	return s.name
}

// Done is closed once the transport has been released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Open completes the Connecting to Open transition and constructs the channel.
func (s *Session) Open() error {
	if s.state != Connecting {
		return fmt.Errorf("session %s: open in state %s", s, s.state)
	}
	if s.role == connection.RoleServer && s.registrar == nil {
		s.Close()
		return fmt.Errorf("session %s: server session without registrar", s)
	}
	channel, err := s.factory.NewChannel(s.role)
	if err != nil {
		s.Close()
		return fmt.Errorf("session %s: %w", s, err)
	}
	s.channel = channel
	s.state = Open
	s.metrics.SessionOpened()
	go s.writeLoop()
	s.logger.Printf("WebSocket opened: %s", s)

	if s.role == connection.RoleClient {
		hs, ok := channel.(connection.ClientHandshake)
		if !ok {
			s.Close()
			return fmt.Errorf("session %s: channel does not implement the client handshake", s)
		}
		hello, err := hs.Hello()
		if err != nil {
			s.Close()
			return fmt.Errorf("session %s: %w", s, err)
		}
		s.enqueue(hello)
	}
	return nil
}

// Close is idempotent. A server session leaves the registry before its transport is released.
func (s *Session) Close() {
	switch s.state {
	case Closed:
		return
	case Open:
		s.metrics.SessionClosed()
		close(s.outbound)
	case Connecting:
		go func() {
			_ = s.transport.Close()
			close(s.done)
		}()
	}
	s.state = Closed
	if s.registrar != nil {
		s.registrar.Unregister(s)
	}
	s.cancel()
	s.logger.Printf("WebSocket closed: %s", s)
}

// OnInboundMessage handles one message received on the transport.
func (s *Session) OnInboundMessage(message []byte) {
	if s.state != Open {
		return
	}
	if !s.channel.Established() {
		s.handshake(message)
		return
	}
	packet, ok := s.channel.Decrypt(message)
	if !ok {
		s.drop(DropDecryptFailure, "undecryptable message from %s", s)
		return
	}
	if _, err := s.device.Write(packet); err != nil {
		s.drop(DropWriteError, "error writing to TUN: %v", err)
		return
	}
	s.metrics.PacketDelivered(len(packet))
}

// SendPacket encrypts a packet and queues it for the transport.
func (s *Session) SendPacket(packet []byte) {
	if s.state != Open {
		return
	}
	ciphertext, err := s.channel.Encrypt(packet)
	if err != nil {
		if errors.Is(err, connection.ErrEncryptionUnavailable) {
			s.drop(DropEncryptionUnavailable, "session %s not established yet, dropping packet", s)
			return
		}
		s.drop(DropEncryptionUnavailable, "session %s: encrypt failed: %v", s, err)
		return
	}
	if s.enqueue(ciphertext) {
		s.metrics.PacketRouted(len(packet))
	}
}

// Pump reads the transport until it fails and hands every message to the loop.
// It blocks and must run on its own goroutine.
func (s *Session) Pump(ctx context.Context, loop Executor) {
	for {
		message, err := s.transport.ReadMessage(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil && !errors.Is(err, io.EOF) {
				s.logger.Printf("session %s: read failed: %v", s.name, err)
			}
			_ = loop.Submit(ctx, s.Close)
			return
		}
		if err := loop.Submit(ctx, func() { s.OnInboundMessage(message) }); err != nil {
			return
		}
	}
}

func (s *Session) handshake(message []byte) {
	switch s.role {
	case connection.RoleServer:
		hs, ok := s.channel.(connection.ServerHandshake)
		if !ok {
			s.drop(DropHandshake, "session %s: channel does not implement the server handshake", s)
			return
		}
		addr, reply, err := hs.AcceptHello(message)
		if err != nil {
			s.drop(DropHandshake, "undecryptable message from %s", s)
			return
		}
		if !s.registrar.Register(addr, s) {
			s.logger.Printf("tunnel address %s is already in use, closing %s", addr, s)
			s.Close()
			return
		}
		s.address = addr
		s.enqueue(reply)
		s.logger.Printf("registered %s", s)
	case connection.RoleClient:
		hs, ok := s.channel.(connection.ClientHandshake)
		if !ok {
			s.drop(DropHandshake, "session %s: channel does not implement the client handshake", s)
			return
		}
		if err := hs.CompleteHello(message); err != nil {
			s.drop(DropHandshake, "undecryptable message from %s", s)
			return
		}
		s.logger.Printf("session %s established", s)
	}
}

// drop is the single silent-failure path: nothing is sent to the peer.
func (s *Session) drop(reason DropReason, format string, v ...any) {
	s.metrics.PacketDropped(reason)
	s.logger.Printf(format, v...)
}

func (s *Session) enqueue(frame []byte) bool {
	select {
	case s.outbound <- frame:
		return true
	default:
		s.drop(DropQueueFull, "session %s: outbound queue full, dropping message", s)
		return false
	}
}

func (s *Session) writeLoop() {
	defer close(s.done)
	defer func() { _ = s.transport.Close() }()

	for frame := range s.outbound {
		if err := s.transport.WriteMessage(s.ctx, frame); err != nil {
			if s.ctx.Err() == nil {
				s.metrics.PacketDropped(DropTransportSend)
				s.logger.Printf("couldn't reach %s over the WebSocket: %v", s.name, err)
			}
		}
	}
}
