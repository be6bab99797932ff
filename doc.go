/*
Package btcnet implements the session/channel concurrency core of a
Bitcoin peer-to-peer networking engine: TCP connection lifecycle, wire
protocol handshake negotiation, and multiplexed long-lived protocol
conversations for ping/pong, address gossip, and reject.

btcnet owns everything below the application layer — dialing,
accepting, framing, handshaking, keeping channels alive, and gossiping
addresses — while leaving block and transaction relay to a consumer
built on top of it.

# Features

  - Fixed-magic, checksummed wire framing with oversized-payload and
    invalid-checksum rejection
  - Version/verack handshake negotiation across a table of protocol
    version interop constants (31402 through 70016)
  - Self-connect detection via an outbound nonce table
  - Heartbeat and inactivity timers per channel, with configurable
    expiration
  - Ping/pong keepalive, nonce-aware once the peer negotiates it
  - Address gossip capped at 1000 items per message, dropping
    unspecified, port-zero, self, and blacklisted entries
  - Passive reject-message handling for peers that negotiate it
  - Batch outbound connect-races per slot: the first connector whose
    TCP connect succeeds wins and is handshaken, the rest are stopped
  - One-shot seed sessions used only to bootstrap an empty address
    store
  - Manual sessions that retry a fixed endpoint indefinitely
  - JSON-persisted, file-locked address store

# Quick Start

Create and start a network:

	cfg := btcnet.NewConfig(0xD9B4BEF9, "./addresses.json",
		btcnet.WithSeeds("seed.example.org:8333"),
	)
	cfg.InboundEnabled = true
	cfg.InboundPort = 8333

	network, err := btcnet.New(cfg)
	if err != nil {
		// handle error
	}

	network.Start(func(err error) {
		if err != nil {
			// handle startup failure
		}
	})
	defer network.Stop()

Watch channel lifecycle events:

	cancel := network.Subscribe(func(evt btcnet.Event) {
		if evt.IsError() {
			log.Printf("channel to %s failed: %v", evt.Authority, evt.Code)
			return
		}
		log.Printf("channel with %s (inbound=%v)", evt.Authority, evt.Inbound)
	})
	defer cancel()

# Architecture

btcnet separates concerns the way the underlying protocol does:

Network Responsibilities:
  - Owning the executor pool every strand is drained from
  - Address store lifecycle (take/fetch/restore/save)
  - Outbound handshake nonce bookkeeping
  - Per-direction channel tables and connect/disconnect notification

Session Responsibilities (inbound, outbound, manual, seed):
  - Accepting or dialing sockets
  - Attaching the handshake and, once it completes, the steady-state
    protocol set
  - Retrying on a fixed delay after a failed attempt

Channel Responsibilities:
  - Framing and dispatching wire messages on its own strand
  - Heartbeat, inactivity, and expiration timers
  - Subscriber notification for message and stop events

# Handshake Flow

 1. A channel is created for an accepted or dialed socket.
 2. attach_handshake sends (or awaits) version, then verack.
 3. On completion, Network stores the channel; a duplicate authority
    fails the attempt with address_in_use.
 4. attach_protocols wires ping/pong, address gossip, and, if the
    negotiated version supports it, reject.
 5. The channel now runs its steady-state timers until it stops.

# Thread Safety

All public Network methods are safe for concurrent use. Events returns
one shared channel, and every Subscribe goroutine reads from that same
channel, so each event reaches only one reader; fan out to multiple
consumers with your own broadcast if needed.

# Dependencies

  - golang.org/x/sys - platform file locking for the address store
  - github.com/prometheus/client_golang - metrics adapter (see the
    prometheus subpackage)
  - go.opentelemetry.io/otel - tracing adapter (see the otel
    subpackage)
  - github.com/stretchr/testify - test assertions

# See Also

  - DESIGN.md - grounding ledger and design decisions
  - network_test.go TestNetworkTwoNodeLoopbackHandshake - minimal
    two-node loopback example
*/
package btcnet
