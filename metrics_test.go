package btcnet

import (
	"sync"
	"testing"
)

func TestNopMetricsImplementsMetrics(t *testing.T) {
	var _ Metrics = NopMetrics{}
}

func TestNopMetricsMethodsDoNotPanic(t *testing.T) {
	m := NopMetrics{}

	m.ChannelOpened("inbound")
	m.ChannelOpened("outbound")
	m.ChannelClosed("inbound")
	m.ChannelClosed("outbound")
	m.ConnectAttempt("success")
	m.ConnectAttempt("failure")
	m.HandshakeDuration(1.5)
	m.HandshakeResult("success")
	m.HandshakeResult("failure")
	m.HandshakeResult("timeout")
	m.MessageSent("version", 100)
	m.MessageReceived("verack", 0)
	m.PingRoundTrip(0.2)
	m.AddressGossip(3, 1)
	m.BatchConnectStarted()
	m.BatchConnectExhausted()
	m.EventEmitted("success")
	m.EventDropped()
}

// TestMetrics is a test metrics implementation that records calls.
type TestMetrics struct {
	mu sync.Mutex

	ChannelsOpened      map[string]int
	ChannelsClosed      map[string]int
	ConnectAttempts     map[string]int
	HandshakeDurations  []float64
	HandshakeResults    map[string]int
	MessagesSent        map[string]int
	BytesSent           map[string]int
	MessagesReceived    map[string]int
	PingRoundTrips      []float64
	AddressAccepted     int
	AddressFiltered     int
	BatchesStarted      int
	BatchesExhausted    int
	EventsEmitted       map[string]int
	EventsDropped       int
}

func NewTestMetrics() *TestMetrics {
	return &TestMetrics{
		ChannelsOpened:     make(map[string]int),
		ChannelsClosed:     make(map[string]int),
		ConnectAttempts:    make(map[string]int),
		HandshakeResults:   make(map[string]int),
		MessagesSent:       make(map[string]int),
		BytesSent:          make(map[string]int),
		MessagesReceived:   make(map[string]int),
		EventsEmitted:      make(map[string]int),
	}
}

func (m *TestMetrics) ChannelOpened(direction string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChannelsOpened[direction]++
}

func (m *TestMetrics) ChannelClosed(direction string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChannelsClosed[direction]++
}

func (m *TestMetrics) ConnectAttempt(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConnectAttempts[result]++
}

func (m *TestMetrics) HandshakeDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HandshakeDurations = append(m.HandshakeDurations, seconds)
}

func (m *TestMetrics) HandshakeResult(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HandshakeResults[result]++
}

func (m *TestMetrics) MessageSent(command string, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent[command]++
	m.BytesSent[command] += bytes
}

func (m *TestMetrics) MessageReceived(command string, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesReceived[command]++
}

func (m *TestMetrics) PingRoundTrip(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PingRoundTrips = append(m.PingRoundTrips, seconds)
}

func (m *TestMetrics) AddressGossip(accepted, filtered int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddressAccepted += accepted
	m.AddressFiltered += filtered
}

func (m *TestMetrics) BatchConnectStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchesStarted++
}

func (m *TestMetrics) BatchConnectExhausted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchesExhausted++
}

func (m *TestMetrics) EventEmitted(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsEmitted[code]++
}

func (m *TestMetrics) EventDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsDropped++
}

func TestTestMetricsRecordsCalls(t *testing.T) {
	m := NewTestMetrics()

	m.ChannelOpened("inbound")
	m.ChannelOpened("outbound")
	m.ChannelOpened("outbound")
	m.ChannelClosed("inbound")
	m.ConnectAttempt("success")
	m.ConnectAttempt("failure")
	m.ConnectAttempt("failure")
	m.HandshakeDuration(1.5)
	m.HandshakeDuration(2.5)
	m.HandshakeResult("success")
	m.MessageSent("version", 100)
	m.MessageSent("version", 200)
	m.MessageReceived("verack", 0)
	m.AddressGossip(3, 1)
	m.BatchConnectStarted()
	m.BatchConnectExhausted()
	m.EventEmitted("success")
	m.EventDropped()

	if m.ChannelsOpened["inbound"] != 1 {
		t.Errorf("expected 1 inbound channel, got %d", m.ChannelsOpened["inbound"])
	}
	if m.ChannelsOpened["outbound"] != 2 {
		t.Errorf("expected 2 outbound channels, got %d", m.ChannelsOpened["outbound"])
	}
	if m.ConnectAttempts["failure"] != 2 {
		t.Errorf("expected 2 failure attempts, got %d", m.ConnectAttempts["failure"])
	}
	if len(m.HandshakeDurations) != 2 {
		t.Errorf("expected 2 handshake durations, got %d", len(m.HandshakeDurations))
	}
	if m.MessagesSent["version"] != 2 {
		t.Errorf("expected 2 version messages sent, got %d", m.MessagesSent["version"])
	}
	if m.BytesSent["version"] != 300 {
		t.Errorf("expected 300 bytes sent, got %d", m.BytesSent["version"])
	}
	if m.AddressAccepted != 3 || m.AddressFiltered != 1 {
		t.Errorf("expected 3 accepted/1 filtered, got %d/%d", m.AddressAccepted, m.AddressFiltered)
	}
	if m.EventsDropped != 1 {
		t.Errorf("expected 1 dropped event, got %d", m.EventsDropped)
	}
}

func TestTestMetricsIsThreadSafe(t *testing.T) {
	m := NewTestMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			m.ChannelOpened("inbound")
		}()
		go func() {
			defer wg.Done()
			m.MessageSent("ping", 8)
		}()
		go func() {
			defer wg.Done()
			m.HandshakeDuration(1.0)
		}()
	}
	wg.Wait()

	if m.ChannelsOpened["inbound"] != 100 {
		t.Errorf("expected 100 channels, got %d", m.ChannelsOpened["inbound"])
	}
	if m.MessagesSent["ping"] != 100 {
		t.Errorf("expected 100 messages sent, got %d", m.MessagesSent["ping"])
	}
}

func TestWithMetricsSetsMetrics(t *testing.T) {
	testMetrics := NewTestMetrics()

	cfg := &Config{}
	opt := WithMetrics(testMetrics)
	opt(cfg)

	if cfg.Metrics != testMetrics {
		t.Error("WithMetrics should set the metrics")
	}
}

func TestConfigDefaultsToNopMetrics(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if _, ok := cfg.Metrics.(NopMetrics); !ok {
		t.Error("default metrics should be NopMetrics")
	}
}

func TestConfigWithMetricsOverridesDefault(t *testing.T) {
	testMetrics := NewTestMetrics()

	cfg := &Config{Metrics: testMetrics}
	cfg.applyDefaults()

	if cfg.Metrics != testMetrics {
		t.Error("applyDefaults should not override existing metrics")
	}
}
