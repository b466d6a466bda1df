package client

import (
	"context"

	"multitun/application/logging"
	"multitun/application/network/connection"
	"multitun/application/network/tun"
	"multitun/infrastructure/PAL/platform"
	"multitun/infrastructure/tunnel/session"
)

// Dialer opens the websocket to the hub.
type Dialer interface {
	Dial(ctx context.Context) (connection.Transport, error)
	URL() string
}

type AppDependencies interface {
	TunSettings() tun.Settings
	DeviceFactory() tun.Factory
	ChannelFactory() connection.ChannelFactory
	Dialer() Dialer
	Metrics() session.Metrics
	Logger() logging.Logger
	Platform() platform.Platform
}

type Dependencies struct {
	tunSettings    tun.Settings
	deviceFactory  tun.Factory
	channelFactory connection.ChannelFactory
	dialer         Dialer
	metrics        session.Metrics
	logger         logging.Logger
	platform       platform.Platform
}

func NewDependencies(
	tunSettings tun.Settings,
	deviceFactory tun.Factory,
	channelFactory connection.ChannelFactory,
	dialer Dialer,
	metrics session.Metrics,
	logger logging.Logger,
	platform platform.Platform,
) AppDependencies {
	return &Dependencies{
		tunSettings:    tunSettings,
		deviceFactory:  deviceFactory,
		channelFactory: channelFactory,
		dialer:         dialer,
		metrics:        metrics,
		logger:         logger,
		platform:       platform,
	}
}

func (d *Dependencies) TunSettings() tun.Settings {
	return d.tunSettings
}

func (d *Dependencies) DeviceFactory() tun.Factory {
	return d.deviceFactory
}

func (d *Dependencies) ChannelFactory() connection.ChannelFactory {
	return d.channelFactory
}

func (d *Dependencies) Dialer() Dialer {
	return d.dialer
}

func (d *Dependencies) Metrics() session.Metrics {
	return d.metrics
}

func (d *Dependencies) Logger() logging.Logger {
	return d.logger
}

func (d *Dependencies) Platform() platform.Platform {
	return d.platform
}
