package session

import (
	"net/netip"

	"multitun/application/logging"
	"multitun/infrastructure/network/ip"
)

var _ Registrar = (*Registry)(nil)

// Registry maps tunnel addresses to server sessions and routes interface packets.
// It is owned by the event loop goroutine and is not safe for concurrent use.
type Registry struct {
	sessions map[netip.Addr]*Session
	parser   ip.HeaderParser
	logger   logging.Logger
	metrics  Metrics
}

func NewRegistry(logger logging.Logger, metrics Metrics) *Registry {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Registry{
		sessions: make(map[netip.Addr]*Session),
		parser:   ip.NewHeaderParser(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Register binds addr to s. It fails without changes when addr is bound to another session.
func (r *Registry) Register(addr netip.Addr, s *Session) bool {
	addr = addr.Unmap()
	if current, found := r.sessions[addr]; found {
		return current == s
	}
	r.sessions[addr] = s
	return true
}

// Unregister removes every binding to s. It is a no-op for unknown sessions.
func (r *Registry) Unregister(s *Session) {
	for addr, current := range r.sessions {
		if current == s {
			delete(r.sessions, addr)
		}
	}
}

func (r *Registry) Lookup(addr netip.Addr) (*Session, bool) {
	s, found := r.sessions[addr.Unmap()]
	return s, found
}

func (r *Registry) Len() int {
	return len(r.sessions)
}

// RouteFromInterface forwards a packet read from the virtual interface to the
// session registered for its IPv4 destination.
func (r *Registry) RouteFromInterface(packet []byte) {
	dst, err := r.parser.DestinationAddress(packet)
	if err != nil {
		r.drop("dropping packet from TUN: %v", err)
		return
	}
	s, found := r.sessions[dst]
	if !found {
		r.drop("no session for %s, dropping packet", dst)
		return
	}
	s.SendPacket(packet)
}

// CloseAll closes every registered session.
func (r *Registry) CloseAll() {
	for _, s := range r.sessions {
		s.Close()
	}
}

func (r *Registry) drop(format string, v ...any) {
	r.metrics.PacketDropped(DropRoutingMiss)
	r.logger.Printf(format, v...)
}
