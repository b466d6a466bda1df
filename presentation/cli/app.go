package cli

import (
	"context"
	"fmt"

	"multitun/domain/mode"
	"multitun/infrastructure/PAL/configuration"
	"multitun/infrastructure/PAL/platform"
	palSignal "multitun/infrastructure/PAL/signal"
	"multitun/infrastructure/PAL/tun_device"
	"multitun/infrastructure/cryptography/chacha20"
	"multitun/infrastructure/logging"
	wsclient "multitun/infrastructure/network/ws/client"
	wsserver "multitun/infrastructure/network/ws/server"
	"multitun/infrastructure/telemetry"
	"multitun/presentation/elevation"
	clientrunner "multitun/presentation/runners/client"
	serverrunner "multitun/presentation/runners/server"
	"multitun/presentation/signals/shutdown"

	"golang.org/x/sync/errgroup"
)

type runner interface {
	Run(ctx context.Context) error
}

func run(ctx context.Context, env Environment, opts Options) error {
	m := mode.FromServerFlag(opts.Server)
	if env.Platform == platform.Unsupported {
		return mode.NewUnsupportedPlatform(m, env.GOOS)
	}
	if err := elevation.Require(env.Elevation); err != nil {
		return err
	}

	cfg, err := loadConfiguration(opts.ConfigPath, m)
	if err != nil {
		return err
	}

	backend, err := logging.NewBackend(cfg.All.LogFile, cfg.All.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = backend.Close()
	}()
	logger := backend.NewLogger(m.String())

	ctx, cancel := shutdown.NewHandler(palSignal.NewDefaultProvider(env.Platform), env.Notifier, logger).Watch(ctx)
	defer cancel()

	metrics := telemetry.New()
	r, err := newRunner(m, cfg, env.Platform, metrics, backend)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return r.Run(gctx)
	})
	if cfg.All.MetricsAddress != "" {
		g.Go(func() error {
			return telemetry.Serve(gctx, cfg.All.MetricsAddress, metrics.Handler(), backend.NewLogger("metrics"))
		})
	}
	return g.Wait()
}

func loadConfiguration(path string, m mode.Mode) (*configuration.Configuration, error) {
	cfg, err := configuration.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if m == mode.Server {
		err = cfg.ValidateServer()
	} else {
		err = cfg.ValidateClient()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func newRunner(
	m mode.Mode,
	cfg *configuration.Configuration,
	p platform.Platform,
	metrics *telemetry.Metrics,
	backend *logging.Backend,
) (runner, error) {
	devices := tun_device.NewFactory(p)
	logger := backend.NewLogger(m.String())

	if m == mode.Server {
		settings, err := cfg.ServerTunSettings()
		if err != nil {
			return nil, err
		}
		users, err := cfg.Users()
		if err != nil {
			return nil, err
		}
		channels, err := chacha20.NewServerFactory(users)
		if err != nil {
			return nil, err
		}
		logger.Printf("starting as a server on port %d", cfg.All.ServerPort)
		return serverrunner.NewRunner(serverrunner.NewDependencies(
			settings,
			devices,
			channels,
			cfg.ListenAddress(),
			wsserver.Options{Path: "/" + cfg.All.WSLocation, WebDir: cfg.Server.WebDir},
			metrics,
			logger,
			p,
		)), nil
	}

	settings, err := cfg.ClientTunSettings()
	if err != nil {
		return nil, err
	}
	channels, err := chacha20.NewClientFactory(settings.LocalAddress, cfg.Client.Password)
	if err != nil {
		return nil, err
	}
	dialer := wsclient.NewDialer(
		cfg.All.ServerAddress,
		cfg.All.ServerPort,
		cfg.All.WSLocation,
		int64(settings.MTU+chacha20.Overhead),
		wsclient.DefaultDialTimeout,
	)
	logger.Printf("starting as a client, forwarding to %s", dialer.URL())
	return clientrunner.NewRunner(clientrunner.NewDependencies(
		settings,
		devices,
		channels,
		dialer,
		metrics,
		logger,
		p,
	)), nil
}
