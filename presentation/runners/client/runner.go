package client

import (
	"context"
	"errors"
	"fmt"

	"multitun/application/network/connection"
	"multitun/infrastructure/tunnel/pump"
	"multitun/infrastructure/tunnel/reactor"
	"multitun/infrastructure/tunnel/session"

	"golang.org/x/sync/errgroup"
)

// ErrSessionClosed is returned when the connection to the hub ends. The client does not reconnect.
var ErrSessionClosed = errors.New("connection to server closed")

type Runner struct {
	deps AppDependencies
}

func NewRunner(deps AppDependencies) *Runner {
	return &Runner{deps: deps}
}

// Run opens the virtual interface, connects to the hub and tunnels traffic
// until ctx ends or the session closes.
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

	dialer := r.deps.Dialer()
	transport, err := dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", dialer.URL(), err)
	}
	logger.Printf("connected to %s", dialer.URL())

	s := session.New(session.Config{
		Role:      connection.RoleClient,
		Name:      dialer.URL(),
		Transport: transport,
		Factory:   r.deps.ChannelFactory(),
		Device:    device,
		Logger:    logger,
		Metrics:   r.deps.Metrics(),
	})

	g, gctx := errgroup.WithContext(ctx)
	loop := reactor.New(reactor.DefaultTaskQueueSize)
	packets := pump.New(device, settings.MTU, !r.deps.Platform().NativePoll(), logger)

	// Queued before the loop starts; runs as its first task.
	if err := loop.Submit(gctx, func() {
		if openErr := s.Open(); openErr != nil {
			logger.Printf("failed to open session: %v", openErr)
			return
		}
		go s.Pump(gctx, loop)
	}); err != nil {
		_ = transport.Close()
		return err
	}

	g.Go(func() error {
		return packets.Run(gctx)
	})
	g.Go(func() error {
		// no address filtering: every packet goes to the hub
		return loop.Run(gctx, packets.Packets(), s.SendPacket, s.Close)
	})
	g.Go(func() error {
		select {
		case <-s.Done():
			return ErrSessionClosed
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return device.Close()
	})

	err = g.Wait()
	if ctx.Err() != nil {
		logger.Printf("client stopped")
		return nil
	}
	return err
}
