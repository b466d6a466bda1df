package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
)

var (
	_ Conn   = (*websocket.Conn)(nil)
	_ Pinger = (*websocket.Conn)(nil)
)

// Conn abstracts github.com/coder/websocket.Conn used by Transport.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(status websocket.StatusCode, reason string) error
}

// Pinger is implemented by connections that support websocket ping/pong.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Upgrader upgrades HTTP to WebSocket and returns Conn.
type Upgrader interface {
	Upgrade(w http.ResponseWriter, r *http.Request) (Conn, error)
}
