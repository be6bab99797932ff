// Package authority implements the (IPv6-normalized address, port) peer
// identity value type used throughout the core, along with the parsing
// and formatting grammar the wire layer and configuration surface both
// depend on.
package authority

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// ErrInvalidAuthority is returned when Parse cannot make sense of its input.
var ErrInvalidAuthority = errors.New("authority: invalid endpoint")

// Authority is an immutable (IPv6-normalized address, port) peer identity.
// IPv4 addresses are stored as IPv4-mapped IPv6 (::ffff:a.b.c.d). Port
// zero means "no port". Equality is bitwise on the normalized bytes.
type Authority struct {
	addr [16]byte
	port uint16
}

// Zero is the wildcard/unspecified authority (address "::", port 0),
// used to detect and filter unspecified addr-gossip entries.
var Zero = Authority{}

// New builds an Authority from 16 raw IPv6-normalized address bytes and a
// port. It does not validate the bytes; callers constructing from a
// parsed netip.Addr should prefer FromAddrPort.
func New(addr [16]byte, port uint16) Authority {
	return Authority{addr: addr, port: port}
}

// FromAddrPort builds an Authority from a netip.Addr and a port,
// normalizing IPv4 addresses to IPv4-mapped IPv6 form.
func FromAddrPort(a netip.Addr, port uint16) Authority {
	var out Authority
	if a.Is4() {
		v4 := a.As4()
		out.addr[10] = 0xff
		out.addr[11] = 0xff
		copy(out.addr[12:16], v4[:])
	} else {
		out.addr = a.As16()
	}
	out.port = port
	return out
}

// Parse accepts the grammar `(ipv4 | '[' ipv6 ']') (':' port)?` where
// port is decimal 0..65535. A bare address with no port defaults the
// port to 0 ("unspecified"), matching libbitcoin's authority grammar.
func Parse(s string) (Authority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Authority{}, fmt.Errorf("%w: empty input", ErrInvalidAuthority)
	}

	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return Authority{}, fmt.Errorf("%w: unterminated bracketed ipv6: %q", ErrInvalidAuthority, s)
		}
		hostPart := s[1:end]
		rest := s[end+1:]

		addr, err := netip.ParseAddr(hostPart)
		if err != nil {
			return Authority{}, fmt.Errorf("%w: %v", ErrInvalidAuthority, err)
		}

		port, err := parsePortSuffix(rest)
		if err != nil {
			return Authority{}, err
		}
		return FromAddrPort(addr, port), nil
	}

	// Bare address: either "host" or "host:port". Since IPv4 dotted
	// addresses also contain no colon-ambiguity issue (unlike bare
	// IPv6), split on the last colon only.
	host := s
	var portStr string
	if idx := strings.LastIndexByte(s, ':'); idx >= 0 {
		candidate := s[idx+1:]
		if _, err := strconv.ParseUint(candidate, 10, 16); err == nil {
			host = s[:idx]
			portStr = candidate
		}
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return Authority{}, fmt.Errorf("%w: %v", ErrInvalidAuthority, err)
	}

	var port uint16
	if portStr != "" {
		p, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Authority{}, fmt.Errorf("%w: bad port %q", ErrInvalidAuthority, portStr)
		}
		port = uint16(p)
	}

	return FromAddrPort(addr, port), nil
}

func parsePortSuffix(rest string) (uint16, error) {
	if rest == "" {
		return 0, nil
	}
	if !strings.HasPrefix(rest, ":") {
		return 0, fmt.Errorf("%w: expected ':port' after ']', got %q", ErrInvalidAuthority, rest)
	}
	p, err := strconv.ParseUint(rest[1:], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: bad port %q", ErrInvalidAuthority, rest[1:])
	}
	return uint16(p), nil
}

// IsIPv4Mapped reports whether the stored address is an IPv4-mapped IPv6
// address (the ::ffff:0:0/96 range).
func (a Authority) IsIPv4Mapped() bool {
	for i := 0; i < 10; i++ {
		if a.addr[i] != 0 {
			return false
		}
	}
	return a.addr[10] == 0xff && a.addr[11] == 0xff
}

// IsUnspecified reports whether the address portion is the IPv4 or IPv6
// wildcard (0.0.0.0 or ::), used by address-gossip filtering to drop
// unspecified entries.
func (a Authority) IsUnspecified() bool {
	if a.IsIPv4Mapped() {
		return a.addr[12] == 0 && a.addr[13] == 0 && a.addr[14] == 0 && a.addr[15] == 0
	}
	for _, b := range a.addr {
		if b != 0 {
			return false
		}
	}
	return true
}

// Bytes returns the 16-byte IPv6-normalized address.
func (a Authority) Bytes() [16]byte { return a.addr }

// Port returns the port, or 0 if unspecified.
func (a Authority) Port() uint16 { return a.port }

// Addr returns the address as a netip.Addr, unmapping IPv4-mapped IPv6
// back to a 4-byte address for display purposes.
func (a Authority) Addr() netip.Addr {
	if a.IsIPv4Mapped() {
		var v4 [4]byte
		copy(v4[:], a.addr[12:16])
		return netip.AddrFrom4(v4)
	}
	return netip.AddrFrom16(a.addr)
}

// Format renders the authority per the inverse of Parse's grammar:
// IPv4-mapped addresses render as dotted IPv4, everything else as
// bracketed IPv6, both with an optional ":port" suffix when non-zero.
func (a Authority) Format() string {
	addr := a.Addr()
	if a.port == 0 {
		if addr.Is4() {
			return addr.String()
		}
		return "[" + addr.String() + "]"
	}
	if addr.Is4() {
		return fmt.Sprintf("%s:%d", addr.String(), a.port)
	}
	return fmt.Sprintf("[%s]:%d", addr.String(), a.port)
}

// String implements fmt.Stringer.
func (a Authority) String() string { return a.Format() }

// Equal reports bitwise equality of normalized address bytes and port.
func (a Authority) Equal(other Authority) bool {
	return a.addr == other.addr && a.port == other.port
}
