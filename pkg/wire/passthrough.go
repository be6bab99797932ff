package wire

// PassthroughMessage carries an opaque payload for message types the
// core parses-but-routes without decoding fields, leaving the
// remainder parsed-but-routed for derived applications. A derived
// application subscribing to one of these commands is handed the raw
// payload bytes to decode with its own extended codec.
type PassthroughMessage struct {
	command  string
	vmin     uint32
	vmax     uint32
	Payload  []byte
}

func (m *PassthroughMessage) Command() string        { return m.command }
func (m *PassthroughMessage) VersionMinimum() uint32 { return m.vmin }
func (m *PassthroughMessage) VersionMaximum() uint32 { return m.vmax }
func (m *PassthroughMessage) Marshal(uint32) ([]byte, error) {
	return append([]byte(nil), m.Payload...), nil
}

// passthroughCommands lists every opaque command beyond the typed
// variants (version, verack, ping, pong, addr, getaddr, reject, and
// alert), along with the interop version window each was introduced in.
var passthroughCommands = map[string][2]uint32{
	"headers":      {Version31402, versionUnbounded},
	"block":        {Version31402, versionUnbounded},
	"getheaders":   {Version31800, versionUnbounded},
	"getblocks":    {Version31402, versionUnbounded},
	"inv":          {Version31402, versionUnbounded},
	"getdata":      {Version31402, versionUnbounded},
	"notfound":     {Version31402, versionUnbounded},
	"tx":           {Version31402, versionUnbounded},
	"mempool":      {Version60001, versionUnbounded},
	"sendheaders":  {Version70012, versionUnbounded},
	"feefilter":    {Version70012, versionUnbounded},
	"sendcmpct":    {Version70014, versionUnbounded},
	"filterload":   {Version70001, versionUnbounded},
	"filteradd":    {Version70001, versionUnbounded},
	"filterclear":  {Version70001, versionUnbounded},
	"merkleblock":  {Version70001, versionUnbounded},
	"getcfilters":  {Version70015, versionUnbounded},
	"cfilter":      {Version70015, versionUnbounded},
	"getcfheaders": {Version70015, versionUnbounded},
	"cfheaders":    {Version70015, versionUnbounded},
	"getcfcheckpt": {Version70015, versionUnbounded},
	"cfcheckpt":    {Version70015, versionUnbounded},
}

func init() {
	for command, window := range passthroughCommands {
		command, window := command, window
		register(command, func(payload []byte, _ uint32) (Message, error) {
			return &PassthroughMessage{
				command: command,
				vmin:    window[0],
				vmax:    window[1],
				Payload: append([]byte(nil), payload...),
			}, nil
		})
	}
}
