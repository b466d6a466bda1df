package server

import (
	"net/http"

	"multitun/infrastructure/network/ws"

	"github.com/coder/websocket"
)

var _ ws.Upgrader = (*DefaultUpgrader)(nil)

type DefaultUpgrader struct {
	readLimit int64
}

// NewDefaultUpgrader caps every inbound message at readLimit bytes.
func NewDefaultUpgrader(readLimit int64) *DefaultUpgrader {
	return &DefaultUpgrader{readLimit: readLimit}
}

func (a *DefaultUpgrader) Upgrade(w http.ResponseWriter, r *http.Request) (ws.Conn, error) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, err
	}
	wsConn.SetReadLimit(a.readLimit)
	return wsConn, nil
}
