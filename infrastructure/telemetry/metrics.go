package telemetry

import (
	"net/http"

	"multitun/infrastructure/tunnel/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "multitun"

// Metrics counts tunnel traffic on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	packets  *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	active   prometheus.Gauge
	sessions prometheus.Counter
}

var _ session.Metrics = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		packets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packets_total",
				Help:      "Number of packets moved through the tunnel",
			},
			[]string{"direction"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_total",
				Help:      "Plaintext bytes moved through the tunnel",
			},
			[]string{"direction"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packets_dropped_total",
				Help:      "Number of packets or messages dropped without notifying any peer",
			},
			[]string{"reason"},
		),
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of open sessions",
			},
		),
		sessions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Number of sessions opened since start",
			},
		),
	}
	m.registry.MustRegister(m.packets, m.bytes, m.dropped, m.active, m.sessions)
	return m
}

// PacketRouted counts a packet read from the interface and queued to a peer.
func (m *Metrics) PacketRouted(size int) {
	m.packets.WithLabelValues("tx").Inc()
	m.bytes.WithLabelValues("tx").Add(float64(size))
}

// PacketDelivered counts a packet received from a peer and written to the interface.
func (m *Metrics) PacketDelivered(size int) {
	m.packets.WithLabelValues("rx").Inc()
	m.bytes.WithLabelValues("rx").Add(float64(size))
}

func (m *Metrics) PacketDropped(reason session.DropReason) {
	m.dropped.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) SessionOpened() {
	m.active.Inc()
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	m.active.Dec()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
