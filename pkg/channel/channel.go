// Package channel wraps a socket in the framed message-level protocol:
// a per-connection strand, a typed message-subscriber registry,
// heartbeat/inactivity/expiration timers, and the pause/running/stopped
// state machine.
package channel

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/socket"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Handler is invoked once per decoded message of the subscribed
// variant. Returning false unsubscribes the handler.
type Handler func(code errcode.Code, msg wire.Message) bool

// StopHandler is invoked exactly once when the channel stops.
type StopHandler func(code errcode.Code)

// Timers bundles the three channel timeouts. Zero means disabled.
type Timers struct {
	Heartbeat  time.Duration
	Inactivity time.Duration
	Expiration time.Duration
}

// HeartbeatFunc is invoked on the channel strand each time the
// heartbeat timer fires; the ping protocol supplies this.
type HeartbeatFunc func(c *Channel)

// Channel is a message-level endpoint over one Socket. All exported
// methods except Stop and the accessors assume the caller is running
// on Strand.
type Channel struct {
	strand  *executor.Strand
	sock    *socket.Socket
	codec   *wire.Codec
	inbound bool
	remote  authority.Authority

	nonce uint64

	timers    Timers
	onHeartbeat HeartbeatFunc

	mu                sync.Mutex
	state             State
	negotiatedVersion uint32
	subscribers       map[string][]Handler
	stopHandlers      []StopHandler
	stopFired         bool

	heartbeatTimer  *time.Timer
	inactivityTimer *time.Timer
	expirationTimer *time.Timer
}

// New creates a paused channel wrapping sock, driven by codec, with a
// freshly generated random nonce used to detect self-connection.
func New(strand *executor.Strand, sock *socket.Socket, codec *wire.Codec, inbound bool, remote authority.Authority, maxVersion uint32, timers Timers) *Channel {
	return &Channel{
		strand:            strand,
		sock:              sock,
		codec:             codec,
		inbound:           inbound,
		remote:            remote,
		nonce:             randomNonce(),
		timers:            timers,
		state:             Paused,
		negotiatedVersion: maxVersion,
		subscribers:       make(map[string][]Handler),
	}
}

func randomNonce() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Nonce returns the channel's self-connect detection nonce.
func (c *Channel) Nonce() uint64 { return c.nonce }

// Inbound reports whether this channel originated from an accept.
func (c *Channel) Inbound() bool { return c.inbound }

// Remote returns the peer authority this channel is connected to.
func (c *Channel) Remote() authority.Authority { return c.remote }

// Strand returns the channel's owning strand.
func (c *Channel) Strand() *executor.Strand { return c.strand }

// SetHeartbeat installs the function invoked on each heartbeat tick.
func (c *Channel) SetHeartbeat(fn HeartbeatFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHeartbeat = fn
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NegotiatedVersion returns the current negotiated protocol version.
func (c *Channel) NegotiatedVersion() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negotiatedVersion
}

// SetNegotiatedVersion narrows the negotiated version to
// min(current, peerVersion), called by the handshake protocol upon
// receipt of the peer's version message.
func (c *Channel) SetNegotiatedVersion(peerVersion uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if peerVersion < c.negotiatedVersion {
		c.negotiatedVersion = peerVersion
	}
}

// Start begins the framed read loop. Must be called from the channel
// strand while Paused.
func (c *Channel) Start() {
	c.mu.Lock()
	if c.state == Stopped || !c.state.CanTransitionTo(Running) {
		c.mu.Unlock()
		return
	}
	c.state = Running
	c.mu.Unlock()

	c.armTimers()
	c.readHeading()
}

// Resume re-arms the read loop and restarts timers; equivalent to
// Start for this implementation, where paused and not-yet-started
// share one representation.
func (c *Channel) Resume() {
	c.Start()
}

// Pause stops scheduling further reads; in-flight completions still
// deliver.
func (c *Channel) Pause() {
	c.mu.Lock()
	if c.state == Running {
		c.state = Paused
	}
	c.mu.Unlock()
	c.cancelTimers()
}

func (c *Channel) armTimers() {
	c.cancelTimers()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timers.Heartbeat > 0 {
		c.heartbeatTimer = time.AfterFunc(c.timers.Heartbeat, c.onHeartbeatFire)
	}
	if c.timers.Inactivity > 0 {
		c.inactivityTimer = time.AfterFunc(c.timers.Inactivity, func() {
			c.Stop(errcode.ChannelTimeout)
		})
	}
	if c.timers.Expiration > 0 {
		c.expirationTimer = time.AfterFunc(c.timers.Expiration, func() {
			c.Stop(errcode.ChannelDropped)
		})
	}
}

func (c *Channel) onHeartbeatFire() {
	c.mu.Lock()
	fn := c.onHeartbeat
	interval := c.timers.Heartbeat
	stopped := c.state == Stopped
	c.mu.Unlock()
	if stopped {
		return
	}
	c.strand.Post(func() {
		if fn != nil {
			fn(c)
		}
		c.mu.Lock()
		if c.state != Stopped && interval > 0 {
			c.heartbeatTimer = time.AfterFunc(interval, c.onHeartbeatFire)
		}
		c.mu.Unlock()
	})
}

func (c *Channel) resetInactivityTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inactivityTimer != nil {
		c.inactivityTimer.Stop()
	}
	if c.timers.Inactivity > 0 && c.state != Stopped {
		c.inactivityTimer = time.AfterFunc(c.timers.Inactivity, func() {
			c.Stop(errcode.ChannelTimeout)
		})
	}
}

func (c *Channel) cancelTimers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
	}
	if c.inactivityTimer != nil {
		c.inactivityTimer.Stop()
	}
	if c.expirationTimer != nil {
		c.expirationTimer.Stop()
	}
}

// readHeading implements read-loop step 1: read exactly 24 bytes.
func (c *Channel) readHeading() {
	c.mu.Lock()
	running := c.state == Running
	c.mu.Unlock()
	if !running {
		return
	}

	buf := make([]byte, wire.HeadingSize)
	c.sock.Read(buf, func(code errcode.Code, n int) {
		if code != errcode.Success {
			c.Stop(code)
			return
		}
		h, err := c.codec.DecodeHeadingOnly(buf)
		if err != nil {
			c.Stop(errcode.From(err))
			return
		}
		c.readPayload(buf, h)
	})
}

// readPayload implements read-loop steps 3-6: read the payload, decode,
// dispatch, and reset the inactivity timer before looping.
func (c *Channel) readPayload(heading []byte, h wire.MessageHeading) {
	payload := make([]byte, h.Length)
	if h.Length == 0 {
		c.onPayloadRead(heading, payload)
		return
	}
	c.sock.Read(payload, func(code errcode.Code, n int) {
		if code != errcode.Success {
			c.Stop(code)
			return
		}
		c.onPayloadRead(heading, payload)
	})
}

func (c *Channel) onPayloadRead(heading []byte, payload []byte) {
	negotiated := c.NegotiatedVersion()
	msg, err := c.codec.Decode(heading, payload, negotiated)
	if err != nil {
		c.Stop(errcode.From(err))
		return
	}

	if c.dispatch(msg) {
		c.resetInactivityTimer()
		c.readHeading()
	}
}

// dispatch fans a decoded message out to every subscriber for its
// command, in subscription order. Returns false if any handler stopped
// the channel, in which case the read loop must terminate.
func (c *Channel) dispatch(msg wire.Message) bool {
	command := msg.Command()

	c.mu.Lock()
	handlers := append([]Handler(nil), c.subscribers[command]...)
	c.mu.Unlock()

	var retained []Handler
	for _, h := range handlers {
		keep := h(errcode.Success, msg)
		if c.State() == Stopped {
			return false
		}
		if keep {
			retained = append(retained, h)
		}
	}

	c.mu.Lock()
	if c.state != Stopped {
		c.subscribers[command] = retained
	}
	c.mu.Unlock()
	return true
}

// Send serializes msg with the negotiated version, writes it, then
// delivers handler(code).
func (c *Channel) Send(msg wire.Message, handler func(errcode.Code)) {
	negotiated := c.NegotiatedVersion()
	data, err := c.codec.Encode(msg, negotiated)
	if err != nil {
		if handler != nil {
			handler(errcode.From(err))
		}
		return
	}
	c.sock.Write(data, func(code errcode.Code) {
		if handler != nil {
			handler(code)
		}
	})
}

// Subscribe registers handler for messages carrying command.
func (c *Channel) Subscribe(command string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers[command] = append(c.subscribers[command], handler)
}

// SubscribeStop registers a one-shot callback invoked on terminal
// stop. If the channel already stopped, handler fires immediately.
func (c *Channel) SubscribeStop(handler StopHandler) {
	c.mu.Lock()
	if c.stopFired {
		c.mu.Unlock()
		handler(errcode.ChannelStopped)
		return
	}
	c.stopHandlers = append(c.stopHandlers, handler)
	c.mu.Unlock()
}

// Stop is an idempotent terminal transition: cancels timers, closes
// the socket, fires stop subscribers with code (channel_stopped if
// code is success), then clears all typed subscribers.
func (c *Channel) Stop(code errcode.Code) {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return
	}
	c.state = Stopped
	if code == errcode.Success {
		code = errcode.ChannelStopped
	}
	handlers := c.stopHandlers
	c.stopHandlers = nil
	c.stopFired = true
	c.mu.Unlock()

	c.cancelTimers()
	c.sock.Stop()

	for _, h := range handlers {
		h(code)
	}

	c.mu.Lock()
	c.subscribers = make(map[string][]Handler)
	c.mu.Unlock()
}
