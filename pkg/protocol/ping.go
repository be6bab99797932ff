package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Ping implements both ping tiers. Nonced is false for
// tier ping_31402 (no nonce, no pending-timeout tracking) and true for
// tier ping_60001 (nonce round-trip with timeout-on-still-pending).
type Ping struct {
	ch     *channel.Channel
	nonced bool

	mu      sync.Mutex
	pending bool
	nonce   uint64
}

// NewPing creates a Ping protocol for ch. nonced selects tier
// ping_60001 (true) or ping_31402 (false).
func NewPing(ch *channel.Channel, nonced bool) *Ping {
	return &Ping{ch: ch, nonced: nonced}
}

// Start arms the incoming-ping/pong subscriptions and the heartbeat
// callback that emits outgoing pings.
func (p *Ping) Start() {
	p.ch.Subscribe("ping", p.onPing)
	if p.nonced {
		p.ch.Subscribe("pong", p.onPong)
	}
	p.ch.SetHeartbeat(func(*channel.Channel) { p.onHeartbeat() })
}

func (p *Ping) onHeartbeat() {
	if !p.nonced {
		p.ch.Send(&wire.PingMessage{HasNonce: false}, nil)
		return
	}

	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		p.ch.Stop(errcode.ChannelTimeout)
		return
	}
	nonce := randomNonce()
	p.pending = true
	p.nonce = nonce
	p.mu.Unlock()

	p.ch.Send(&wire.PingMessage{Nonce: nonce, HasNonce: true}, nil)
}

func (p *Ping) onPing(code errcode.Code, msg wire.Message) bool {
	if code != errcode.Success {
		return true
	}
	ping := msg.(*wire.PingMessage)
	if ping.HasNonce {
		p.ch.Send(&wire.PongMessage{Nonce: ping.Nonce}, nil)
	}
	return true
}

func (p *Ping) onPong(code errcode.Code, msg wire.Message) bool {
	if code != errcode.Success {
		return true
	}
	pong := msg.(*wire.PongMessage)

	p.mu.Lock()
	expected := p.nonce
	wasPending := p.pending
	p.mu.Unlock()

	if !wasPending || pong.Nonce != expected {
		p.ch.Stop(errcode.BadStream)
		return false
	}

	p.mu.Lock()
	p.pending = false
	p.mu.Unlock()
	return true
}

func randomNonce() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
