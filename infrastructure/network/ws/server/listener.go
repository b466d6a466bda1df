package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"multitun/application/logging"
	"multitun/infrastructure/network/ws"
)

// Listener brings accept-loop semantics to the websocket handler's queue.
type Listener struct {
	ctx                  context.Context
	server               Server
	queue                chan *ws.Transport
	startOnce, closeOnce sync.Once
}

// NewListener wires Server and connection queue and starts Server.
func NewListener(
	ctx context.Context,
	server Server,
	queue chan *ws.Transport,
) (*Listener, error) {
	if ctx == nil {
		return nil, errors.New("ctx must not be nil")
	}
	if server == nil {
		return nil, errors.New("server must not be nil")
	}
	if queue == nil {
		return nil, errors.New("queue must not be nil")
	}
	ln := &Listener{
		ctx:    ctx,
		server: server,
		queue:  queue,
	}
	ln.Start()
	return ln, nil
}

func (l *Listener) Start() {
	l.startOnce.Do(func() {
		go func() {
			<-l.ctx.Done()
			_ = l.Close()
		}()
		go func() {
			_ = l.server.Serve()
		}()
	})
}

// Accept blocks until a websocket is upgraded, the context ends, or the server stops.
func (l *Listener) Accept() (*ws.Transport, error) {
	select {
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	case t, ok := <-l.queue:
		if !ok || t == nil {
			return nil, net.ErrClosed
		}
		return t, nil
	case <-l.server.Done():
		if err := l.server.Err(); err != nil {
			return nil, err
		}
		return nil, net.ErrClosed
	}
}

func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() { err = l.server.Shutdown() })
	return err
}

// Serve builds the HTTP carrier on ln and returns a Listener over upgraded transports.
func Serve(
	ctx context.Context,
	ln net.Listener,
	handlerQueueSize int,
	readLimit int64,
	opts Options,
	logger logging.Logger,
) (*Listener, error) {
	queue := make(chan *ws.Transport, handlerQueueSize)
	handler := NewDefaultHandler(NewDefaultUpgrader(readLimit), queue, logger)
	srv, err := NewHTTPServer(ctx, ln, handler, opts)
	if err != nil {
		return nil, err
	}
	return NewListener(ctx, srv, queue)
}
