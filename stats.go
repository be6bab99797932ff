package btcnet

import (
	"sync"
	"time"

	"github.com/blockweave/btcnet/pkg/authority"
)

// ChannelStats is a snapshot of a channel's traffic and lifecycle
// counters, safe to read without synchronization once returned.
type ChannelStats struct {
	Authority authority.Authority

	Connected  bool
	Inbound    bool
	ConnectedAt time.Time

	TotalConnectTime time.Duration

	MessagesSent     int64
	MessagesReceived int64
	BytesSent        int64
	BytesReceived    int64

	LastMessageAt time.Time

	ConnectionCount int
	FailureCount    int
}

// channelStatsTracker is the internal mutable per-channel counter set.
type channelStatsTracker struct {
	mu sync.RWMutex

	connectedAt      time.Time
	totalConnectTime time.Duration

	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
	bytesReceived    int64

	lastMessageAt   time.Time
	connectionCount int
	failureCount    int
}

func newChannelStatsTracker() *channelStatsTracker {
	return &channelStatsTracker{}
}

func (s *channelStatsTracker) recordConnectionStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectedAt = time.Now()
	s.connectionCount++
}

func (s *channelStatsTracker) recordConnectionEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connectedAt.IsZero() {
		s.totalConnectTime += time.Since(s.connectedAt)
		s.connectedAt = time.Time{}
	}
}

func (s *channelStatsTracker) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureCount++
}

func (s *channelStatsTracker) recordMessageSent(bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesSent++
	s.bytesSent += int64(bytes)
	s.lastMessageAt = time.Now()
}

func (s *channelStatsTracker) recordMessageReceived(bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesReceived++
	s.bytesReceived += int64(bytes)
	s.lastMessageAt = time.Now()
}

func (s *channelStatsTracker) snapshot(a authority.Authority, connected, inbound bool) ChannelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := ChannelStats{
		Authority:        a,
		Connected:        connected,
		Inbound:          inbound,
		ConnectedAt:      s.connectedAt,
		TotalConnectTime: s.totalConnectTime,
		MessagesSent:     s.messagesSent,
		MessagesReceived: s.messagesReceived,
		BytesSent:        s.bytesSent,
		BytesReceived:    s.bytesReceived,
		LastMessageAt:    s.lastMessageAt,
		ConnectionCount:  s.connectionCount,
		FailureCount:     s.failureCount,
	}
	if connected && !s.connectedAt.IsZero() {
		stats.TotalConnectTime += time.Since(s.connectedAt)
	}
	return stats
}

// Stats returns a snapshot of per-channel counters for every
// authority the network has ever stored a channel for. Entries persist
// across disconnects so operators can see historical failure counts.
func (n *Network) Stats() []ChannelStats {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]ChannelStats, 0, len(n.statsTrackers))
	for a, tracker := range n.statsTrackers {
		_, inConnected := n.inboundChannels[a]
		_, outConnected := n.outboundChannels[a]
		out = append(out, tracker.snapshot(a, inConnected || outConnected, inConnected))
	}
	return out
}
