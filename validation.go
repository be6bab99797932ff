package btcnet

import (
	"fmt"
	"net"
	"unicode"
)

// maxCommandLength mirrors the 12-byte command field of a wire message
// heading; command names longer than this cannot be encoded.
const maxCommandLength = 12

// ValidateCommand checks that name is safe to encode as a wire command:
// non-empty, ASCII printable, and no longer than the heading's 12-byte
// command field.
func ValidateCommand(name string) error {
	if name == "" {
		return fmt.Errorf("%w: command name cannot be empty", ErrInvalidCommand)
	}
	if len(name) > maxCommandLength {
		return fmt.Errorf("%w: %d bytes exceeds maximum of %d", ErrCommandTooLong, len(name), maxCommandLength)
	}
	for i, r := range name {
		if !isValidCommandChar(r) {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidCommand, r, i)
		}
	}
	return nil
}

// isValidCommandChar returns true if r is a printable, non-space ASCII
// character, matching the character set Bitcoin Core commands use.
func isValidCommandChar(r rune) bool {
	return r > 0x20 && r < 0x7f
}

// ValidateUserAgent checks that ua is a non-empty string within the
// length a version message's var_str field can carry without pushing
// the message past a sane size.
func ValidateUserAgent(ua string) error {
	if ua == "" {
		return fmt.Errorf("%w: user agent cannot be empty", ErrInvalidUserAgent)
	}
	if len(ua) > 256 {
		return fmt.Errorf("%w: %d bytes exceeds maximum of 256", ErrInvalidUserAgent, len(ua))
	}
	for _, r := range ua {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character in user agent", ErrInvalidUserAgent)
		}
	}
	return nil
}

// ValidateEndpoint checks that endpoint parses as a host:port pair,
// the form Peers and Seeds entries and Manual.Connect arguments use.
func ValidateEndpoint(endpoint string) error {
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("%w: host and port are both required", ErrInvalidEndpoint)
	}
	return nil
}

// ValidateEndpoints validates a slice of endpoint strings, returning
// the first error encountered.
func ValidateEndpoints(endpoints []string) error {
	for _, e := range endpoints {
		if err := ValidateEndpoint(e); err != nil {
			return err
		}
	}
	return nil
}
