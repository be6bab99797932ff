package btcnet

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DebugState represents the complete state of a Network for debugging.
type DebugState struct {
	NetworkMagic uint32 `json:"network_magic"`
	UserAgent    string `json:"user_agent"`

	InboundChannels  int `json:"inbound_channels"`
	OutboundChannels int `json:"outbound_channels"`
	PendingNonces    int `json:"pending_nonces"`

	AddressStore DebugAddressStore `json:"address_store"`
	Config       DebugConfig       `json:"config"`

	CapturedAt time.Time `json:"captured_at"`
}

// DebugAddressStore summarizes the address store for debugging.
type DebugAddressStore struct {
	KnownAddresses int `json:"known_addresses"`
}

// DebugConfig summarizes configuration for debugging.
type DebugConfig struct {
	ProtocolMaximum  uint32 `json:"protocol_maximum"`
	ProtocolMinimum  uint32 `json:"protocol_minimum"`
	InboundEnabled   bool   `json:"inbound_enabled"`
	InboundConns     int    `json:"inbound_connections"`
	OutboundConns    int    `json:"outbound_connections"`
	ConnectTimeout   string `json:"connect_timeout"`
	ChannelHandshake string `json:"channel_handshake"`
}

// DumpState captures the current state of the network for
// troubleshooting connection issues.
func (n *Network) DumpState() *DebugState {
	n.mu.Lock()
	inbound := len(n.inboundChannels)
	outbound := len(n.outboundChannels)
	pending := len(n.pendingNonces)
	n.mu.Unlock()

	return &DebugState{
		NetworkMagic:     n.cfg.NetworkMagic,
		UserAgent:        n.cfg.UserAgent,
		InboundChannels:  inbound,
		OutboundChannels: outbound,
		PendingNonces:    pending,
		AddressStore:     DebugAddressStore{KnownAddresses: n.AddressCount()},
		Config: DebugConfig{
			ProtocolMaximum:  n.cfg.ProtocolMaximum,
			ProtocolMinimum:  n.cfg.ProtocolMinimum,
			InboundEnabled:   n.cfg.InboundEnabled,
			InboundConns:     n.cfg.InboundConnections,
			OutboundConns:    n.cfg.OutboundConnections,
			ConnectTimeout:   n.cfg.ConnectTimeout.String(),
			ChannelHandshake: n.cfg.ChannelHandshake.String(),
		},
		CapturedAt: time.Now(),
	}
}

// DumpStateJSON returns the network state as formatted JSON.
func (n *Network) DumpStateJSON() (string, error) {
	state := n.DumpState()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("btcnet: marshal debug state: %w", err)
	}
	return string(data), nil
}

// DumpStateString returns a human-readable rendering of the network
// state, suitable for logging or an admin console.
func (n *Network) DumpStateString() string {
	state := n.DumpState()
	var sb strings.Builder

	sb.WriteString("=== btcnet Network Debug State ===\n\n")

	sb.WriteString("IDENTITY:\n")
	sb.WriteString(fmt.Sprintf("  Network Magic: %#x\n", state.NetworkMagic))
	sb.WriteString(fmt.Sprintf("  User Agent:    %s\n", state.UserAgent))
	sb.WriteString("\n")

	sb.WriteString("CHANNELS:\n")
	sb.WriteString(fmt.Sprintf("  Inbound:  %d\n", state.InboundChannels))
	sb.WriteString(fmt.Sprintf("  Outbound: %d\n", state.OutboundChannels))
	sb.WriteString(fmt.Sprintf("  Pending handshake nonces: %d\n", state.PendingNonces))
	sb.WriteString("\n")

	sb.WriteString("ADDRESS STORE:\n")
	sb.WriteString(fmt.Sprintf("  Known addresses: %d\n", state.AddressStore.KnownAddresses))
	sb.WriteString("\n")

	sb.WriteString("CONFIGURATION:\n")
	sb.WriteString(fmt.Sprintf("  Protocol range:    [%d, %d]\n", state.Config.ProtocolMinimum, state.Config.ProtocolMaximum))
	sb.WriteString(fmt.Sprintf("  Inbound enabled:   %v (capacity %d)\n", state.Config.InboundEnabled, state.Config.InboundConns))
	sb.WriteString(fmt.Sprintf("  Outbound capacity: %d\n", state.Config.OutboundConns))
	sb.WriteString(fmt.Sprintf("  Connect timeout:   %s\n", state.Config.ConnectTimeout))
	sb.WriteString(fmt.Sprintf("  Handshake timeout: %s\n", state.Config.ChannelHandshake))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Captured at: %s\n", state.CapturedAt.Format(time.RFC3339)))
	sb.WriteString("===================================\n")

	return sb.String()
}

// ConnectionSummary returns a brief summary of channel counts by
// direction.
func (n *Network) ConnectionSummary() map[string]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return map[string]int{
		"inbound":  len(n.inboundChannels),
		"outbound": len(n.outboundChannels),
	}
}
