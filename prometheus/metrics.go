// Package prometheus provides a Prometheus implementation of the
// btcnet.Metrics interface.
//
// All metrics are registered with the default Prometheus registry
// unless a custom registerer is supplied. Metric names follow the
// configured namespace prefix (default: "btcnet").
//
// # Counters
//
//	btcnet_channels_opened_total{direction="inbound|outbound"}
//	btcnet_channels_closed_total{direction="inbound|outbound"}
//	btcnet_connect_attempts_total{result="success|failure"}
//	btcnet_handshake_results_total{result="success|failure|timeout"}
//	btcnet_messages_sent_total{command="<command>"}
//	btcnet_messages_received_total{command="<command>"}
//	btcnet_bytes_sent_total{command="<command>"}
//	btcnet_bytes_received_total{command="<command>"}
//	btcnet_address_gossip_accepted_total
//	btcnet_address_gossip_filtered_total
//	btcnet_batch_connect_started_total
//	btcnet_batch_connect_exhausted_total
//	btcnet_events_emitted_total{code="<code>"}
//	btcnet_events_dropped_total
//
// # Histograms
//
//	btcnet_handshake_duration_seconds
//	btcnet_ping_round_trip_seconds
//
// # Example Usage
//
//	import (
//	    "github.com/blockweave/btcnet"
//	    btcnetprom "github.com/blockweave/btcnet/prometheus"
//	    "github.com/prometheus/client_golang/prometheus/promhttp"
//	)
//
//	func main() {
//	    metrics := btcnetprom.NewMetrics("myapp")
//
//	    cfg := btcnet.NewConfig(magic, addressPath,
//	        btcnet.WithMetrics(metrics),
//	    )
//
//	    net, err := btcnet.New(cfg)
//	    // ...
//
//	    http.Handle("/metrics", promhttp.Handler())
//	    http.ListenAndServe(":9090", nil)
//	}
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blockweave/btcnet"
)

// DefaultNamespace is the default namespace for all metrics.
const DefaultNamespace = "btcnet"

// Metrics implements btcnet.Metrics using Prometheus metrics.
//
// Metrics is safe for concurrent use.
type Metrics struct {
	channelsOpened *prometheus.CounterVec
	channelsClosed *prometheus.CounterVec
	connectAttempts *prometheus.CounterVec
	handshakeDuration prometheus.Histogram
	handshakeResults  *prometheus.CounterVec

	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	bytesSent        *prometheus.CounterVec
	bytesReceived    *prometheus.CounterVec

	pingRoundTrip prometheus.Histogram

	addressGossipAccepted prometheus.Counter
	addressGossipFiltered prometheus.Counter

	batchConnectStarted   prometheus.Counter
	batchConnectExhausted prometheus.Counter

	eventsEmitted *prometheus.CounterVec
	eventsDropped prometheus.Counter
}

// Ensure Metrics implements btcnet.Metrics.
var _ btcnet.Metrics = (*Metrics)(nil)

// NewMetrics creates a new Prometheus metrics collector with the given
// namespace. If namespace is empty, DefaultNamespace ("btcnet") is
// used.
//
// All metrics are automatically registered with the default
// Prometheus registry. If registration fails (e.g. metrics already
// registered), this function will panic. To avoid panics, use
// NewMetricsWithRegisterer with a custom registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a new Prometheus metrics collector
// with the given namespace and registerer. This allows using a custom
// registry for testing or to avoid conflicts with other metrics.
//
// If namespace is empty, DefaultNamespace ("btcnet") is used. If
// registerer is nil, metrics will not be registered automatically.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	addressGossipAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "address_gossip_accepted_total",
		Help:      "Total number of gossiped addresses accepted into the address store",
	})
	addressGossipFiltered := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "address_gossip_filtered_total",
		Help:      "Total number of gossiped addresses filtered out",
	})
	batchConnectStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_connect_started_total",
		Help:      "Total number of outbound connect batches started",
	})
	batchConnectExhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_connect_exhausted_total",
		Help:      "Total number of outbound connect batches that exhausted every candidate",
	})
	eventsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of channel events dropped due to a full buffer",
	})
	pingRoundTrip := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ping_round_trip_seconds",
		Help:      "Histogram of ping/pong round-trip durations",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
	handshakeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handshake_duration_seconds",
		Help:      "Histogram of successful handshake durations",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	m := &Metrics{
		channelsOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "channels_opened_total", Help: "Total number of channels stored after a successful handshake"},
			[]string{"direction"},
		),
		channelsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "channels_closed_total", Help: "Total number of channels that stopped"},
			[]string{"direction"},
		),
		connectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "connect_attempts_total", Help: "Total number of outbound connect attempts by result"},
			[]string{"result"},
		),
		handshakeDuration: handshakeDuration,
		handshakeResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "handshake_results_total", Help: "Total number of handshake attempts by outcome"},
			[]string{"result"},
		),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "messages_sent_total", Help: "Total number of outbound wire messages by command"},
			[]string{"command"},
		),
		messagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "messages_received_total", Help: "Total number of inbound wire messages by command"},
			[]string{"command"},
		),
		bytesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "bytes_sent_total", Help: "Total bytes sent by command"},
			[]string{"command"},
		),
		bytesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "bytes_received_total", Help: "Total bytes received by command"},
			[]string{"command"},
		),
		pingRoundTrip:         pingRoundTrip,
		addressGossipAccepted: addressGossipAccepted,
		addressGossipFiltered: addressGossipFiltered,
		batchConnectStarted:   batchConnectStarted,
		batchConnectExhausted: batchConnectExhausted,
		eventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "events_emitted_total", Help: "Total number of channel-lifecycle events emitted by code"},
			[]string{"code"},
		),
		eventsDropped: eventsDropped,
	}

	if registerer != nil {
		registerer.MustRegister(
			m.channelsOpened,
			m.channelsClosed,
			m.connectAttempts,
			m.handshakeDuration,
			m.handshakeResults,
			m.messagesSent,
			m.messagesReceived,
			m.bytesSent,
			m.bytesReceived,
			m.pingRoundTrip,
			addressGossipAccepted,
			addressGossipFiltered,
			batchConnectStarted,
			batchConnectExhausted,
			m.eventsEmitted,
			eventsDropped,
		)
	}

	return m
}

// ChannelOpened implements btcnet.Metrics.
func (m *Metrics) ChannelOpened(direction string) {
	m.channelsOpened.WithLabelValues(direction).Inc()
}

// ChannelClosed implements btcnet.Metrics.
func (m *Metrics) ChannelClosed(direction string) {
	m.channelsClosed.WithLabelValues(direction).Inc()
}

// ConnectAttempt implements btcnet.Metrics.
func (m *Metrics) ConnectAttempt(result string) {
	m.connectAttempts.WithLabelValues(result).Inc()
}

// HandshakeDuration implements btcnet.Metrics.
func (m *Metrics) HandshakeDuration(seconds float64) {
	m.handshakeDuration.Observe(seconds)
}

// HandshakeResult implements btcnet.Metrics.
func (m *Metrics) HandshakeResult(result string) {
	m.handshakeResults.WithLabelValues(result).Inc()
}

// MessageSent implements btcnet.Metrics.
func (m *Metrics) MessageSent(command string, bytes int) {
	m.messagesSent.WithLabelValues(command).Inc()
	m.bytesSent.WithLabelValues(command).Add(float64(bytes))
}

// MessageReceived implements btcnet.Metrics.
func (m *Metrics) MessageReceived(command string, bytes int) {
	m.messagesReceived.WithLabelValues(command).Inc()
	m.bytesReceived.WithLabelValues(command).Add(float64(bytes))
}

// PingRoundTrip implements btcnet.Metrics.
func (m *Metrics) PingRoundTrip(seconds float64) {
	m.pingRoundTrip.Observe(seconds)
}

// AddressGossip implements btcnet.Metrics.
func (m *Metrics) AddressGossip(accepted, filtered int) {
	m.addressGossipAccepted.Add(float64(accepted))
	m.addressGossipFiltered.Add(float64(filtered))
}

// BatchConnectStarted implements btcnet.Metrics.
func (m *Metrics) BatchConnectStarted() {
	m.batchConnectStarted.Inc()
}

// BatchConnectExhausted implements btcnet.Metrics.
func (m *Metrics) BatchConnectExhausted() {
	m.batchConnectExhausted.Inc()
}

// EventEmitted implements btcnet.Metrics.
func (m *Metrics) EventEmitted(code string) {
	m.eventsEmitted.WithLabelValues(code).Inc()
}

// EventDropped implements btcnet.Metrics.
func (m *Metrics) EventDropped() {
	m.eventsDropped.Inc()
}
