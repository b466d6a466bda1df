package server

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"multitun/application/logging"
	"multitun/infrastructure/network/ws"

	"github.com/coder/websocket"
)

// CloseCodeQueueFull is sent when the accept queue cannot take another connection.
const CloseCodeQueueFull = websocket.StatusTryAgainLater

// DefaultHandler upgrades HTTP connections to WebSocket and enqueues them as transports.
type DefaultHandler struct {
	upgrader ws.Upgrader
	queue    chan *ws.Transport
	logger   logging.Logger
}

func NewDefaultHandler(
	upgrader ws.Upgrader,
	queue chan *ws.Transport,
	logger logging.Logger,
) *DefaultHandler {
	return &DefaultHandler{
		upgrader: upgrader,
		queue:    queue,
		logger:   logger,
	}
}

func (h *DefaultHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rAddr, err := h.addrFromRequest(r)
	if err != nil {
		h.logf("bad remote addr: %v", err)
		http.Error(w, "bad remote addr", http.StatusBadRequest)
		return
	}

	wsConn, uErr := h.upgrader.Upgrade(w, r)
	if uErr != nil {
		h.logf("upgrade failed for %s: %v", rAddr, uErr)
		return
	}
	h.logf("WebSocket connected: %s", rAddr)

	transport := ws.NewTransport(wsConn, rAddr)
	select {
	case h.queue <- transport:
		transport.StartKeepalive(ws.DefaultKeepaliveInterval)
	default:
		h.logf("accept queue full, rejecting %s", rAddr)
		_ = wsConn.Close(CloseCodeQueueFull, "could not accept new connection")
	}
}

func (h *DefaultHandler) logf(format string, v ...any) {
	if h.logger != nil {
		h.logger.Printf(format, v...)
	}
}

func (h *DefaultHandler) addrFromRequest(r *http.Request) (*net.TCPAddr, error) {
	host, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return nil, err
	}
	hostIP := net.ParseIP(host)
	if hostIP == nil {
		return nil, errors.New("invalid remote host IP")
	}
	p, pErr := strconv.Atoi(port)
	if pErr != nil {
		return nil, errors.New("invalid remote host port number")
	}
	return &net.TCPAddr{IP: hostIP, Port: p}, nil
}
