// Package session implements the four session variants (inbound,
// outbound, manual, seed) and their shared start_channel
// sequence: drive a channel through handshake and protocol attachment,
// then hand it to Network for storage.
package session

import (
	"sync"

	"github.com/blockweave/btcnet/internal/eventdispatch"
	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
)

// NetworkHandle is the subset of Network a session drives against,
// isolated behind an interface so this package (lower in the
// dependency chain) never imports Network (higher).
type NetworkHandle interface {
	// Strand returns the Network strand; start_channel steps that must
	// run there are posted through it.
	Strand() *executor.Strand

	// Pend records nonce as a pending outbound handshake attempt.
	// Returns false if nonce is already pending (self-connect signal).
	Pend(nonce uint64) bool
	// Unpend removes nonce from the pending set.
	Unpend(nonce uint64)
	// IsPendingNonce reports whether nonce is currently pending,
	// satisfying protocol.SelfConnectChecker.
	IsPendingNonce(nonce uint64) bool

	// Store inserts ch into the channel table. Returns AddressInUse if
	// an entry for the same remote authority already exists.
	Store(ch *channel.Channel, notify bool, inbound bool) errcode.Code
	// Unstore removes ch from the channel table.
	Unstore(ch *channel.Channel, inbound bool) error
}

// StartedHandler is invoked once a channel is fully attached and
// stored (or has failed to become so).
type StartedHandler func(code errcode.Code)

// StoppedHandler is invoked once a started channel later stops.
type StoppedHandler func(code errcode.Code)

// HandshakeAttacher attaches and starts the tier-selected handshake
// protocol on ch (on the channel strand), invoking done exactly once.
type HandshakeAttacher func(ch *channel.Channel, done func(errcode.Code))

// ProtocolAttacher attaches the post-handshake protocol set (ping,
// address gossip, reject) appropriate to ch's negotiated version.
type ProtocolAttacher func(ch *channel.Channel)

// Base holds the state and behavior shared by every session variant:
// the stopped flag, stop-subscribers, the pending (shaking) channel
// set, and the start_channel sequence itself. Session variants embed
// Base and add their own accept/connect loop.
type Base struct {
	Network NetworkHandle

	mu       sync.Mutex
	stopped  bool
	pending  map[*channel.Channel]struct{}
	stopSubs eventdispatch.StopSubscribers
}

// NewBase creates a Base bound to network.
func NewBase(network NetworkHandle) *Base {
	return &Base{Network: network, pending: make(map[*channel.Channel]struct{})}
}

// Stopped reports whether Stop has been called.
func (b *Base) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// Stop is idempotent: it cancels timers (owned by variants), fires
// stop-subscribers with service_stopped, and stops every pending
// (shaking) channel.
func (b *Base) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()

	b.stopSubs.Fire(errcode.ServiceStopped)

	b.mu.Lock()
	pending := make([]*channel.Channel, 0, len(b.pending))
	for ch := range b.pending {
		pending = append(pending, ch)
	}
	b.pending = make(map[*channel.Channel]struct{})
	b.mu.Unlock()

	for _, ch := range pending {
		ch.Stop(errcode.ServiceStopped)
	}
}

// SubscribeStop registers a one-shot session stop handler.
func (b *Base) SubscribeStop(handler func(errcode.Code)) {
	b.stopSubs.Subscribe(handler)
}

// StartChannel drives ch through the common sequence: fail-fast if
// stopped, pend the outbound nonce, insert into the
// pending set, attach handshake on the channel strand, on completion
// return to the Network strand to store or fail, then attach
// post-handshake protocols and resume.
func (b *Base) StartChannel(ch *channel.Channel, outbound bool, attachHandshake HandshakeAttacher, attachProtocols ProtocolAttacher, started StartedHandler, stopped StoppedHandler) {
	if b.Stopped() {
		if started != nil {
			started(errcode.ServiceStopped)
		}
		if stopped != nil {
			stopped(errcode.ServiceStopped)
		}
		return
	}

	if outbound {
		if !b.Network.Pend(ch.Nonce()) {
			ch.Stop(errcode.ChannelConflict)
			if started != nil {
				started(errcode.ChannelConflict)
			}
			if stopped != nil {
				stopped(errcode.ChannelConflict)
			}
			return
		}
	}

	b.mu.Lock()
	b.pending[ch] = struct{}{}
	b.mu.Unlock()

	ch.Strand().Post(func() {
		attachHandshake(ch, func(code errcode.Code) {
			b.Network.Strand().Post(func() {
				b.onShakeComplete(ch, outbound, code, attachProtocols, started, stopped)
			})
		})
		ch.Resume()
	})
}

func (b *Base) onShakeComplete(ch *channel.Channel, outbound bool, code errcode.Code, attachProtocols ProtocolAttacher, started StartedHandler, stopped StoppedHandler) {
	b.mu.Lock()
	delete(b.pending, ch)
	b.mu.Unlock()

	if outbound {
		b.Network.Unpend(ch.Nonce())
	}

	if code != errcode.Success {
		if started != nil {
			started(code)
		}
		return
	}

	storeCode := b.Network.Store(ch, true, !outbound)
	if storeCode != errcode.Success {
		ch.Stop(storeCode)
		if started != nil {
			started(storeCode)
		}
		return
	}

	ch.Strand().Post(func() {
		if started != nil {
			started(errcode.Success)
		}
	})

	ch.SubscribeStop(func(code errcode.Code) {
		b.Network.Strand().Post(func() {
			_ = b.Network.Unstore(ch, !outbound)
			if stopped != nil {
				stopped(code)
			}
		})
	})

	ch.Strand().Post(func() {
		attachProtocols(ch)
		ch.Resume()
	})
}
