package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"multitun/application/network/connection"

	"github.com/coder/websocket"
)

var _ connection.Transport = (*Transport)(nil)

// ErrUnexpectedMessageType is returned when the peer sends a non-binary frame.
var ErrUnexpectedMessageType = errors.New("unexpected websocket message type")

const (
	DefaultWriteTimeout = 10 * time.Second
	// DefaultKeepaliveInterval is the ping period; a pong missing for one period closes the transport.
	DefaultKeepaliveInterval = 30 * time.Second
)

// Transport carries exactly one datagram per binary websocket message.
//
// Concurrency:
//   - WriteMessage is safe for concurrent use.
//   - ReadMessage must be called from a single goroutine.
type Transport struct {
	conn         Conn
	em           ErrorMapper
	writeTimeout time.Duration
	remote       net.Addr

	// ctx ends when the transport is closed and stops the keepalive.
	ctx    context.Context
	cancel context.CancelFunc

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewTransport(conn Conn, remote net.Addr) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		conn:         conn,
		em:           DefaultErrorMapper{},
		writeTimeout: DefaultWriteTimeout,
		remote:       remote,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// WithWriteTimeout bounds every WriteMessage call; zero disables the bound.
func (t *Transport) WithWriteTimeout(d time.Duration) *Transport {
	t.writeTimeout = d
	return t
}

func (t *Transport) RemoteAddr() net.Addr { return t.remote }

func (t *Transport) ReadMessage(ctx context.Context) ([]byte, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, t.em.Map(err)
	}
	if typ != websocket.MessageBinary {
		_ = t.closeWith(websocket.StatusUnsupportedData, "binary frames only")
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedMessageType, typ)
	}
	return data, nil
}

func (t *Transport) WriteMessage(ctx context.Context, data []byte) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	if t.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.writeTimeout)
		defer cancel()
	}
	return t.em.Map(t.conn.Write(ctx, websocket.MessageBinary, data))
}

// Close is safe to call multiple times.
func (t *Transport) Close() error {
	return t.closeWith(websocket.StatusNormalClosure, "")
}

// StartKeepalive pings the peer every interval until the transport is closed.
// A failed or unanswered ping closes the transport, which fails the pending ReadMessage.
// Pongs are only processed while a ReadMessage is in flight.
func (t *Transport) StartKeepalive(interval time.Duration) {
	p, ok := t.conn.(Pinger)
	if !ok || interval <= 0 {
		return
	}
	go t.keepalive(p, interval)
}

func (t *Transport) keepalive(p Pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(t.ctx, interval)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			if t.ctx.Err() == nil {
				_ = t.closeWith(websocket.StatusGoingAway, "keepalive timeout")
			}
			return
		}
	}
}

func (t *Transport) closeWith(code websocket.StatusCode, reason string) error {
	t.closeOnce.Do(func() {
		t.cancel()
		t.closeErr = t.em.Map(t.conn.Close(code, reason))
		if errors.Is(t.closeErr, net.ErrClosed) {
			t.closeErr = nil
		}
	})
	return t.closeErr
}
