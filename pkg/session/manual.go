package session

import (
	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/socket"
)

// Manual services explicit connect(endpoint[, handler]) calls.
// Each call retries the same endpoint indefinitely after connect_timeout
// until the endpoint connects or the session stops.
type Manual struct {
	*Base
	cfg  Config
	pool *executor.Pool
}

// NewManual creates a manual session bound to network.
func NewManual(network NetworkHandle, pool *executor.Pool, cfg Config) *Manual {
	return &Manual{Base: NewBase(network), cfg: cfg, pool: pool}
}

// Connect attempts to reach endpoint, retrying indefinitely on failure.
// started is invoked once the channel completes its handshake (or the
// session stops); stopped is invoked once when the resulting channel
// later stops.
func (m *Manual) Connect(endpoint string, started StartedHandler, stopped StoppedHandler) {
	remote, err := authority.Parse(endpoint)
	if err != nil {
		if started != nil {
			started(errcode.InvalidConfiguration)
		}
		return
	}
	m.attempt(remote, started, stopped)
}

func (m *Manual) attempt(remote authority.Authority, started StartedHandler, stopped StoppedHandler) {
	if m.Stopped() {
		if started != nil {
			started(errcode.ServiceStopped)
		}
		return
	}

	channelStrand := executor.NewStrand(m.pool)
	sock := socket.New(channelStrand)
	sock.Connect([]string{remote.String()}, func(code errcode.Code) {
		if code != errcode.Success {
			delayRetry(m.cfg.ConnectTimeout, func() { m.attempt(remote, started, stopped) })
			return
		}
		ch := channel.New(sock.Strand(), sock, m.cfg.codec(), false, remote, m.cfg.ProtocolMaximum, m.cfg.Timers)
		m.StartChannel(ch, true, m.cfg.attachHandshake, m.cfg.attachProtocols, started, stopped)
	})
}
