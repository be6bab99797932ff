// Package handshake tracks the progress of the version/verack shake
// algorithm and enforces that only the canonical transition
// sequence is observed, independent of which handshake tier
// (31402/70001/70002) is driving it.
package handshake

import (
	"errors"
	"fmt"
	"sync"
)

// State is a step in the version/verack shake sequence.
type State int

const (
	// Init is the state before any message has been sent or received.
	Init State = iota

	// SentVersion indicates the local version message has been sent.
	SentVersion

	// ReceivedVersion indicates the peer's version message has arrived.
	ReceivedVersion

	// SentVerAck indicates the local verack has been sent.
	SentVerAck

	// ReceivedVerAck indicates the peer's verack has arrived; the shake
	// is complete once services validation (step 5) also passes.
	ReceivedVerAck

	// Complete indicates the shake succeeded.
	Complete

	// Failed indicates the shake failed and will not be retried.
	Failed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Init:
		return "Init"
	case SentVersion:
		return "SentVersion"
	case ReceivedVersion:
		return "ReceivedVersion"
	case SentVerAck:
		return "SentVerAck"
	case ReceivedVerAck:
		return "ReceivedVerAck"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// ErrInvalidTransition indicates an out-of-sequence shake transition.
var ErrInvalidTransition = errors.New("handshake: invalid state transition")

// Progress tracks one channel's shake progress. Sending and receiving
// version race against each other: sending the local version may
// proceed concurrently with awaiting the peer's, so Progress tracks
// each independently and derives a combined State for logging.
type Progress struct {
	mu             sync.Mutex
	sentVersion    bool
	receivedVerson bool
	sentVerAck     bool
	receivedVerAck bool
	state          State
	err            error
}

// NewProgress creates a fresh shake progress tracker in Init.
func NewProgress() *Progress {
	return &Progress{state: Init}
}

// MarkVersionSent records that the local version message was sent.
func (p *Progress) MarkVersionSent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentVersion = true
	p.advanceLocked()
}

// MarkVersionReceived records that the peer's version message arrived.
func (p *Progress) MarkVersionReceived() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receivedVerson = true
	p.advanceLocked()
}

// MarkVerAckSent records that the local verack was sent. Valid only
// after the peer's version has been received.
func (p *Progress) MarkVerAckSent() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.receivedVerson {
		return fmt.Errorf("%w: verack sent before peer version received", ErrInvalidTransition)
	}
	p.sentVerAck = true
	p.advanceLocked()
	return nil
}

// MarkVerAckReceived records that the peer's verack arrived. Valid only
// after the local verack has been sent.
func (p *Progress) MarkVerAckReceived() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.sentVerAck {
		return fmt.Errorf("%w: peer verack received before local verack sent", ErrInvalidTransition)
	}
	p.receivedVerAck = true
	p.advanceLocked()
	return nil
}

// Complete marks the shake as fully successful (post services check).
func (p *Progress) Complete() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.receivedVerAck {
		return fmt.Errorf("%w: complete before verack received", ErrInvalidTransition)
	}
	p.state = Complete
	return nil
}

// Fail marks the shake as terminally failed with err.
func (p *Progress) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Failed
	p.err = err
}

func (p *Progress) advanceLocked() {
	switch {
	case p.receivedVerAck:
		// Complete() moves on to Complete after services validation
		p.state = ReceivedVerAck
	case p.sentVerAck:
		p.state = SentVerAck
	case p.receivedVerson && p.sentVersion:
		p.state = ReceivedVersion
	case p.sentVersion:
		p.state = SentVersion
	case p.receivedVerson:
		p.state = ReceivedVersion
	}
}

// State returns the current combined shake state.
func (p *Progress) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the failure reason, if any.
func (p *Progress) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// IsTerminal reports whether the shake reached Complete or Failed.
func (p *Progress) IsTerminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == Complete || p.state == Failed
}
