package client

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"multitun/application/network/connection"
	"multitun/infrastructure/network/ws"

	"github.com/coder/websocket"
)

const DefaultDialTimeout = 10 * time.Second

// Dialer opens the single outbound websocket a client session runs on.
type Dialer struct {
	url         string
	readLimit   int64
	dialTimeout time.Duration
}

// NewDialer builds a dialer for ws://host:port/path.
func NewDialer(host string, port int, path string, readLimit int64, dialTimeout time.Duration) *Dialer {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(host, fmt.Sprint(port)),
		Path:   "/" + trimSlash(path),
	}
	return &Dialer{url: u.String(), readLimit: readLimit, dialTimeout: dialTimeout}
}

func (d *Dialer) URL() string { return d.url }

func (d *Dialer) Dial(ctx context.Context) (connection.Transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, d.dialTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, d.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", d.url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	conn.SetReadLimit(d.readLimit)
	transport := ws.NewTransport(conn, remoteAddr(d.url))
	transport.StartKeepalive(ws.DefaultKeepaliveInterval)
	return transport, nil
}

func trimSlash(p string) string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	return p
}

type urlAddr string

func (a urlAddr) Network() string { return "ws" }
func (a urlAddr) String() string  { return string(a) }

func remoteAddr(u string) net.Addr { return urlAddr(u) }
