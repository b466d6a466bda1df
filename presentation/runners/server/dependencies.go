package server

import (
	"context"
	"net"

	"multitun/application/logging"
	"multitun/application/network/connection"
	"multitun/application/network/tun"
	"multitun/infrastructure/PAL/platform"
	wsserver "multitun/infrastructure/network/ws/server"
	"multitun/infrastructure/tunnel/session"
)

type AppDependencies interface {
	TunSettings() tun.Settings
	DeviceFactory() tun.Factory
	ChannelFactory() connection.ChannelFactory
	Listen(ctx context.Context) (net.Listener, error)
	CarrierOptions() wsserver.Options
	Metrics() session.Metrics
	Logger() logging.Logger
	Platform() platform.Platform
}

type Dependencies struct {
	tunSettings    tun.Settings
	deviceFactory  tun.Factory
	channelFactory connection.ChannelFactory
	listenAddress  string
	carrierOptions wsserver.Options
	metrics        session.Metrics
	logger         logging.Logger
	platform       platform.Platform
}

func NewDependencies(
	tunSettings tun.Settings,
	deviceFactory tun.Factory,
	channelFactory connection.ChannelFactory,
	listenAddress string,
	carrierOptions wsserver.Options,
	metrics session.Metrics,
	logger logging.Logger,
	platform platform.Platform,
) AppDependencies {
	return &Dependencies{
		tunSettings:    tunSettings,
		deviceFactory:  deviceFactory,
		channelFactory: channelFactory,
		listenAddress:  listenAddress,
		carrierOptions: carrierOptions,
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

// Listen opens the TCP listener the carrier HTTP server accepts websockets on.
func (d *Dependencies) Listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", d.listenAddress)
}

func (d *Dependencies) CarrierOptions() wsserver.Options {
	return d.carrierOptions
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
