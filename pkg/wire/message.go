package wire

// Message is implemented by every wire message variant. Each variant
// declares a unique command, a [VersionMinimum, VersionMaximum] protocol
// version range it is valid within, and knows how to marshal itself for
// a given negotiated version.
type Message interface {
	Command() string
	VersionMinimum() uint32
	VersionMaximum() uint32
	Marshal(version uint32) ([]byte, error)
}

// InRange reports whether negotiated falls within m's declared version
// window, the check the codec performs on both encode and decode.
func InRange(m Message, negotiated uint32) bool {
	return negotiated >= m.VersionMinimum() && negotiated <= m.VersionMaximum()
}

// decodeFunc parses a payload for one command into a concrete Message.
type decodeFunc func(payload []byte, version uint32) (Message, error)

// registry maps command name to its decoder. Populated by init() in the
// files defining each concrete variant, and by RegisterPassthrough for
// the opaque catalog entries.
var registry = map[string]decodeFunc{}

func register(command string, fn decodeFunc) {
	registry[command] = fn
}
