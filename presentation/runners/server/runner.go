package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"multitun/application/network/connection"
	"multitun/application/network/tun"
	"multitun/infrastructure/cryptography/chacha20"
	wsserver "multitun/infrastructure/network/ws/server"
	"multitun/infrastructure/tunnel/pump"
	"multitun/infrastructure/tunnel/reactor"
	"multitun/infrastructure/tunnel/session"

	"golang.org/x/sync/errgroup"
)

// AcceptQueueSize bounds upgraded websockets waiting for a session.
const AcceptQueueSize = 64

// ErrCarrierStopped is returned when the HTTP carrier stops while the server is still running.
var ErrCarrierStopped = errors.New("websocket carrier stopped")

type Runner struct {
	deps AppDependencies
}

func NewRunner(deps AppDependencies) *Runner {
	return &Runner{deps: deps}
}

// Run opens the virtual interface, then serves websocket clients until ctx ends
// or a worker fails.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.deps.Logger()
	settings := r.deps.TunSettings()

	device, err := r.deps.DeviceFactory().Open(settings)
	if err != nil {
		return err
	}
	defer func() {
		_ = device.Close()
	}()
	logger.Printf("TUN device %s up: %s peer %s mtu %d",
		settings.Name, settings.LocalAddress, settings.PeerAddress, settings.MTU)

	ln, err := r.deps.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	carrier, err := wsserver.Serve(
		gctx,
		ln,
		AcceptQueueSize,
		int64(settings.MTU+chacha20.Overhead),
		r.deps.CarrierOptions(),
		logger,
	)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to start websocket carrier: %w", err)
	}
	logger.Printf("listening for websockets on %s", ln.Addr())

	loop := reactor.New(reactor.DefaultTaskQueueSize)
	registry := session.NewRegistry(logger, r.deps.Metrics())
	packets := pump.New(device, settings.MTU, !r.deps.Platform().NativePoll(), logger)
	// Sessions that completed Open but never registered are tracked here so
	// that shutdown releases them too. Only the loop goroutine touches it.
	sessions := make(map[*session.Session]struct{})

	g.Go(func() error {
		return packets.Run(gctx)
	})
	g.Go(func() error {
		return loop.Run(gctx, packets.Packets(), registry.RouteFromInterface, func() {
			registry.CloseAll()
			for s := range sessions {
				s.Close()
			}
		})
	})
	g.Go(func() error {
		return r.accept(gctx, carrier, loop, device, registry, sessions)
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = carrier.Close()
		// unblocks the pump's pending Read
		return device.Close()
	})

	err = g.Wait()
	if ctx.Err() != nil {
		logger.Printf("server stopped")
		return nil
	}
	return err
}

func (r *Runner) accept(
	ctx context.Context,
	carrier *wsserver.Listener,
	loop *reactor.Reactor,
	device tun.Device,
	registry *session.Registry,
	sessions map[*session.Session]struct{},
) error {
	logger := r.deps.Logger()
	for {
		transport, err := carrier.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return ErrCarrierStopped
			}
			return fmt.Errorf("failed to accept websocket: %w", err)
		}

		s := session.New(session.Config{
			Role:      connection.RoleServer,
			Name:      transport.RemoteAddr().String(),
			Transport: transport,
			Factory:   r.deps.ChannelFactory(),
			Device:    device,
			Registrar: registry,
			Logger:    logger,
			Metrics:   r.deps.Metrics(),
		})
		submitErr := loop.Submit(ctx, func() {
			for tracked := range sessions {
				if tracked.State() == session.Closed {
					delete(sessions, tracked)
				}
			}
			if openErr := s.Open(); openErr != nil {
				logger.Printf("failed to open session: %v", openErr)
				return
			}
			sessions[s] = struct{}{}
			go s.Pump(ctx, loop)
		})
		if submitErr != nil {
			_ = transport.Close()
			return nil
		}
	}
}
