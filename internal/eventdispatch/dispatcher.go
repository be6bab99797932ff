// Package eventdispatch implements the Network-wide broadcast and
// stop-subscriber fan-out used by Network and Session: a
// non-blocking event channel plus a one-shot stop-subscriber list that
// fires each subscriber exactly once.
package eventdispatch

import (
	"sync"
	"time"

	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/errcode"
)

// ChannelEvent is a broadcast notification of a channel lifecycle
// change (connected/disconnected).
type ChannelEvent struct {
	Authority authority.Authority
	Inbound   bool
	Code      errcode.Code
	Timestamp time.Time
}

// IsError reports whether this event represents a non-success code.
func (e ChannelEvent) IsError() bool {
	return e.Code != errcode.Success
}

// Dispatcher manages non-blocking broadcast of ChannelEvents to a
// buffered channel, so a slow consumer never blocks connection
// operations running on the Network strand.
type Dispatcher struct {
	events chan ChannelEvent
	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given buffer size.
func NewDispatcher(bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Dispatcher{events: make(chan ChannelEvent, bufferSize)}
}

// Emit broadcasts an event. Non-blocking: if the channel is full, the
// event is dropped rather than stalling the Network strand.
func (d *Dispatcher) Emit(evt ChannelEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.events <- evt:
	default:
	}
}

// Events returns the channel consumers read broadcast events from.
func (d *Dispatcher) Events() <-chan ChannelEvent {
	return d.events
}

// Close closes the events channel. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
}

// StopSubscribers is a one-shot fan-out list: every registered handler
// fires exactly once when Fire is called, and Fire itself is idempotent
// (a second call is a no-op), matching the channel/session stop
// contract's idempotence guarantee.
type StopSubscribers struct {
	mu       sync.Mutex
	handlers []func(errcode.Code)
	fired    bool
	lastCode errcode.Code
}

// Subscribe registers a one-shot stop handler. If Fire has already run,
// handler is invoked immediately with the recorded code.
func (s *StopSubscribers) Subscribe(handler func(errcode.Code)) {
	s.mu.Lock()
	if s.fired {
		code := s.lastCode
		s.mu.Unlock()
		handler(code)
		return
	}
	s.handlers = append(s.handlers, handler)
	s.mu.Unlock()
}

// Fire invokes every subscriber exactly once with code, in subscription
// order. A second and subsequent call is a no-op.
func (s *StopSubscribers) Fire(code errcode.Code) {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	s.lastCode = code
	handlers := s.handlers
	s.handlers = nil
	s.mu.Unlock()

	for _, h := range handlers {
		h(code)
	}
}
