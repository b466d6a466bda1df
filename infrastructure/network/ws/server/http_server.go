package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("http server is already running")
)

// Options configure the carrier HTTP server.
type Options struct {
	// Path is where the websocket endpoint is mounted, e.g. "/ws".
	Path string
	// WebDir, when set, is served at "/" so the endpoint sits inside an ordinary site.
	WebDir string

	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

func (o Options) WithDefaults() Options {
	if o.ReadHeaderTimeout <= 0 {
		o.ReadHeaderTimeout = 5 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 60 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
	return o
}

type httpServer struct {
	ctx          context.Context
	listener     net.Listener
	server       *http.Server
	opts         Options
	handler      Handler
	started      atomic.Bool
	mu           sync.Mutex
	closeOnce    sync.Once
	closed       chan struct{}
	serveErrChan chan error
}

func NewHTTPServer(
	ctx context.Context,
	listener net.Listener,
	handler Handler,
	opts Options,
) (Server, error) {
	if ctx == nil {
		return nil, fmt.Errorf("NewHTTPServer: nil context")
	}
	if listener == nil {
		return nil, fmt.Errorf("NewHTTPServer: nil net.Listener")
	}
	if handler == nil {
		return nil, fmt.Errorf("NewHTTPServer: nil Handler")
	}
	if opts.Path == "" || opts.Path[0] != '/' || opts.Path == "/" {
		return nil, fmt.Errorf("NewHTTPServer: invalid path %q", opts.Path)
	}
	return &httpServer{
		ctx:          ctx,
		listener:     listener,
		opts:         opts.WithDefaults(),
		handler:      handler,
		closed:       make(chan struct{}),
		serveErrChan: make(chan error, 1),
	}, nil
}

func (s *httpServer) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(s.opts.Path, s.handler.Handle)
	if s.opts.WebDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.opts.WebDir)))
	} else {
		mux.HandleFunc("/", http.NotFound)
	}
	return mux
}

func (s *httpServer) Serve() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	server := &http.Server{
		Handler: s.mux(),
		BaseContext: func(_ net.Listener) context.Context {
			return s.ctx
		},
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		IdleTimeout:       s.opts.IdleTimeout,
	}
	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	go func() {
		select {
		case <-s.ctx.Done():
			_ = s.Shutdown()
		case <-s.closed:
		}
	}()

	var err error
	if sErr := server.Serve(s.listener); sErr != nil && !errors.Is(sErr, http.ErrServerClosed) {
		err = sErr
	}
	s.serveErrChan <- err
	close(s.closed)
	return err
}

// Shutdown performs graceful shutdown with a bounded timeout.
func (s *httpServer) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		server := s.server
		s.mu.Unlock()
		if server == nil {
			err = s.listener.Close()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		err = server.Shutdown(ctx)
	})
	return err
}

func (s *httpServer) Done() <-chan struct{} { return s.closed }

func (s *httpServer) Err() error {
	select {
	case err := <-s.serveErrChan:
		return err
	default:
		return nil
	}
}
