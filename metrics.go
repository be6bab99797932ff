package btcnet

// Metrics defines the metrics collection interface for the network
// core. It is designed to be compatible with Prometheus and other
// metrics systems (see the prometheus subpackage for a concrete
// adapter).
//
// Implementations must be safe for concurrent use.
//
// Metric naming convention:
//   - Counters: <name>_total (e.g., channels_total)
//   - Histograms: <name>_seconds (e.g., handshake_duration_seconds)
//   - Gauges: current_<name> (e.g., current_channels)
type Metrics interface {
	// Channel metrics

	// ChannelOpened increments when a channel is stored (post-shake).
	// Labels: direction (inbound, outbound)
	ChannelOpened(direction string)

	// ChannelClosed increments when a channel stops.
	// Labels: direction (inbound, outbound)
	ChannelClosed(direction string)

	// ConnectAttempt records an outbound connect attempt result.
	// Labels: result (success, failure)
	ConnectAttempt(result string)

	// HandshakeDuration records the duration of a completed handshake.
	HandshakeDuration(seconds float64)

	// HandshakeResult records the outcome of a handshake attempt.
	// Labels: result (success, failure, timeout)
	HandshakeResult(result string)

	// Protocol metrics

	// MessageSent records an outbound wire message.
	// Labels: command (the message command name)
	MessageSent(command string, bytes int)

	// MessageReceived records an inbound wire message.
	// Labels: command (the message command name)
	MessageReceived(command string, bytes int)

	// PingRoundTrip records a completed ping/pong round trip.
	PingRoundTrip(seconds float64)

	// AddressGossip records the outcome of an address-gossip save.
	AddressGossip(accepted, filtered int)

	// Batch-connect metrics

	// BatchConnectStarted increments when session_outbound starts a
	// fresh batch for one slot.
	BatchConnectStarted()

	// BatchConnectExhausted increments when every connector in a batch
	// fails and the slot must wait for a fresh batch.
	BatchConnectExhausted()

	// Event metrics

	// EventEmitted records a channel-lifecycle event being broadcast.
	EventEmitted(code string)

	// EventDropped records an event dropped due to a full buffer.
	EventDropped()
}

// NopMetrics is a no-op metrics implementation that discards all metrics.
// It is the default when no metrics collector is configured.
type NopMetrics struct{}

// Ensure NopMetrics implements Metrics.
var _ Metrics = NopMetrics{}

func (NopMetrics) ChannelOpened(direction string)          {}
func (NopMetrics) ChannelClosed(direction string)          {}
func (NopMetrics) ConnectAttempt(result string)            {}
func (NopMetrics) HandshakeDuration(seconds float64)       {}
func (NopMetrics) HandshakeResult(result string)           {}
func (NopMetrics) MessageSent(command string, bytes int)   {}
func (NopMetrics) MessageReceived(command string, bytes int) {}
func (NopMetrics) PingRoundTrip(seconds float64)           {}
func (NopMetrics) AddressGossip(accepted, filtered int)    {}
func (NopMetrics) BatchConnectStarted()                    {}
func (NopMetrics) BatchConnectExhausted()                  {}
func (NopMetrics) EventEmitted(code string)                {}
func (NopMetrics) EventDropped()                           {}
