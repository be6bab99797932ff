// Package errcode defines the closed error taxonomy shared by every
// layer of the core (wire, socket, channel, protocol, session, network)
// so that leaf packages can report a stable, programmatically-checkable
// failure reason without importing the root package's richer Error type.
package errcode

import "fmt"

// Code identifies one closed taxonomy entry. Stable tags, never
// renumbered; append-only.
type Code int

const (
	// Lifecycle
	Success Code = iota
	Bypassed
	ServiceStopped
	SubscriberStopped
	OperationCanceled
	OperationFailed
	OperationTimeout

	// Address
	AddressNotFound
	AddressBlocked
	AddressInUse
	SeedingUnsuccessful

	// I/O
	BadStream
	FileLoad
	FileSave
	FileSystem

	// Connect
	ListenFailed
	AcceptFailed
	Oversubscribed
	ResolveFailed
	ConnectFailed

	// Frame
	InvalidHeading
	InvalidMagic
	OversizedPayload
	InvalidChecksum
	InvalidMessage
	UnknownMessage

	// Protocol
	ProtocolViolation
	ChannelConflict
	ChannelTimeout
	ChannelDropped
	ChannelStopped

	// Config
	InvalidConfiguration
)

var names = map[Code]string{
	Success:              "success",
	Bypassed:             "bypassed",
	ServiceStopped:       "service_stopped",
	SubscriberStopped:    "subscriber_stopped",
	OperationCanceled:    "operation_canceled",
	OperationFailed:      "operation_failed",
	OperationTimeout:     "operation_timeout",
	AddressNotFound:      "address_not_found",
	AddressBlocked:       "address_blocked",
	AddressInUse:         "address_in_use",
	SeedingUnsuccessful:  "seeding_unsuccessful",
	BadStream:            "bad_stream",
	FileLoad:             "file_load",
	FileSave:             "file_save",
	FileSystem:           "file_system",
	ListenFailed:         "listen_failed",
	AcceptFailed:         "accept_failed",
	Oversubscribed:       "oversubscribed",
	ResolveFailed:        "resolve_failed",
	ConnectFailed:        "connect_failed",
	InvalidHeading:       "invalid_heading",
	InvalidMagic:         "invalid_magic",
	OversizedPayload:     "oversized_payload",
	InvalidChecksum:      "invalid_checksum",
	InvalidMessage:       "invalid_message",
	UnknownMessage:       "unknown_message",
	ProtocolViolation:    "protocol_violation",
	ChannelConflict:      "channel_conflict",
	ChannelTimeout:       "channel_timeout",
	ChannelDropped:       "channel_dropped",
	ChannelStopped:       "channel_stopped",
	InvalidConfiguration: "invalid_configuration",
}

// String returns the taxonomy's stable tag name, e.g. "invalid_magic".
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Coded is a lightweight error carrying a taxonomy Code, used by leaf
// packages (wire, socket, channel, protocol, session) that must not
// import the root package's richer Error type without introducing an
// import cycle. The root package converts a Coded into its own *Error
// when surfacing a failure to callers or subscribers.
type Coded struct {
	Code    Code
	Message string
	Cause   error
}

// New creates a Coded error with no underlying cause.
func New(code Code, message string) *Coded {
	return &Coded{Code: code, Message: message}
}

// Wrap creates a Coded error wrapping cause.
func Wrap(code Code, message string, cause error) *Coded {
	return &Coded{Code: code, Message: message, Cause: cause}
}

func (e *Coded) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Coded) Unwrap() error { return e.Cause }

// Is reports whether target is a *Coded with the same Code, letting
// callers use errors.Is(err, errcode.New(errcode.InvalidMagic, "")).
func (e *Coded) Is(target error) bool {
	t, ok := target.(*Coded)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// From extracts the Code from err if it is a *Coded (recursively
// unwrapping), otherwise returns OperationFailed.
func From(err error) Code {
	for err != nil {
		if c, ok := err.(*Coded); ok {
			return c.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return OperationFailed
}
