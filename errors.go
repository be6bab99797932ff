package btcnet

import (
	"errors"
	"fmt"

	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/errcode"
)

// Error wraps a leaf errcode.Code with the network-facing context
// callers need: which peer it concerns, whether the failing channel
// was inbound, and whether the operation is worth retrying.
type Error struct {
	// Code identifies the failure category.
	Code errcode.Code

	// Message is a human-readable description of the error.
	Message string

	// Authority is the peer associated with the error, if any.
	Authority authority.Authority

	// Inbound reports whether the associated channel was inbound.
	Inbound bool

	// Cause is the underlying error, if any.
	Cause error

	// Retriable indicates whether the operation can be retried.
	Retriable bool
}

// Error returns a human-readable error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("btcnet: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("btcnet: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsRetriable reports whether err is a *Error marked retriable.
func IsRetriable(err error) bool {
	var nErr *Error
	if errors.As(err, &nErr) {
		return nErr.Retriable
	}
	return false
}

// NewError creates an Error with no peer context.
func NewError(code errcode.Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithCause creates an Error wrapping cause.
func NewErrorWithCause(code errcode.Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewPeerError creates an Error associated with a specific peer authority.
func NewPeerError(code errcode.Code, message string, a authority.Authority, inbound bool) *Error {
	return &Error{Code: code, Message: message, Authority: a, Inbound: inbound}
}

// Sentinel errors for network-level operations not otherwise carrying
// an errcode.Code (constructor-time misuse, not runtime protocol
// outcomes).
var (
	// ErrNetworkNotStarted indicates Network.Start was never called.
	ErrNetworkNotStarted = errors.New("btcnet: network not started")

	// ErrNetworkAlreadyStarted indicates Network.Start was already called.
	ErrNetworkAlreadyStarted = errors.New("btcnet: network already started")

	// ErrNetworkStopped indicates the network has been stopped.
	ErrNetworkStopped = errors.New("btcnet: network stopped")

	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("btcnet: invalid configuration")

	// ErrChannelNotFound indicates the channel was not present in
	// Network's table when Unstore was called (an internal bug).
	ErrChannelNotFound = errors.New("btcnet: channel not found")

	// ErrInvalidCommand indicates a wire command name failed validation.
	ErrInvalidCommand = errors.New("btcnet: invalid command name")

	// ErrCommandTooLong indicates a command name exceeds the 12-byte
	// field width a message heading can carry.
	ErrCommandTooLong = errors.New("btcnet: command name too long")

	// ErrInvalidUserAgent indicates a configured user agent string
	// failed validation.
	ErrInvalidUserAgent = errors.New("btcnet: invalid user agent")

	// ErrInvalidEndpoint indicates a peer/seed endpoint string could
	// not be parsed as host:port.
	ErrInvalidEndpoint = errors.New("btcnet: invalid endpoint")
)
