// Package handshake implements the name registration exchange that must
// complete before any game message is meaningful.
//
// A client sends "connect <name> [extension...]". The first such line with
// a name moves the protocol from AwaitingName to Named and is answered with
// "welcome". Anything else before that is answered with "invalidCommand" and
// the client may try again. Lines received once named are forwarded to the
// attached session handler.
//
// Name uniqueness is not checked here; the OnNamed callback is the place
// for a lobby to do that.
package handshake

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/internal/peer"
	"github.com/omochice/spectrangle-net/pkg/metrics"
	"github.com/omochice/spectrangle-net/pkg/protocol"
)

// State is the handshake progress of one peer.
type State int

const (
	AwaitingName State = iota
	Named
)

func (s State) String() string {
	switch s {
	case AwaitingName:
		return "AWAITING_NAME"
	case Named:
		return "NAMED"
	default:
		return "UNKNOWN"
	}
}

type session struct {
	handler peer.Handler
}

// Protocol is a peer.Handler for a single peer. It must not be shared
// between peers.
type Protocol struct {
	name    atomic.Pointer[string]
	session atomic.Pointer[session]
	onNamed func(p *peer.Peer, name string)
}

// Option configures a Protocol.
type Option func(*Protocol)

// OnNamed registers fn to run once the peer has a name, before welcome is
// sent.
func OnNamed(fn func(p *peer.Peer, name string)) Option {
	return func(pr *Protocol) {
		pr.onNamed = fn
	}
}

// WithSession attaches h up front.
func WithSession(h peer.Handler) Option {
	return func(pr *Protocol) {
		pr.Attach(h)
	}
}

// New creates a protocol in the AwaitingName state.
func New(opts ...Option) *Protocol {
	pr := &Protocol{}
	for _, opt := range opts {
		opt(pr)
	}
	return pr
}

// State returns the current handshake state.
func (pr *Protocol) State() State {
	if pr.name.Load() == nil {
		return AwaitingName
	}
	return Named
}

// Name returns the registered name, if any.
func (pr *Protocol) Name() (string, bool) {
	n := pr.name.Load()
	if n == nil {
		return "", false
	}
	return *n, true
}

// Attach hands post-handshake lines to h. Passing nil detaches.
func (pr *Protocol) Attach(h peer.Handler) {
	if h == nil {
		pr.session.Store(nil)
		return
	}
	pr.session.Store(&session{handler: h})
}

// HandleMessage implements peer.Handler.
func (pr *Protocol) HandleMessage(p *peer.Peer, line string) {
	if name, ok := pr.Name(); ok {
		if s := pr.session.Load(); s != nil {
			s.handler.HandleMessage(p, line)
			return
		}
		p.Logger().Debug("no session attached, dropping line",
			zap.String("name", name),
			zap.String("line", line),
		)
		return
	}

	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		p.SendInvalidCommandError(err)
		return
	}

	if cmd.Name != protocol.CommandConnect {
		p.SendInvalidCommandError(protocol.NewInvalidCommandError(line, "expected connect"))
		return
	}
	if len(cmd.Args) == 0 {
		p.SendInvalidCommandError(protocol.NewInvalidCommandError(line, "connect without a name"))
		return
	}

	// Extensions after the name are not negotiated yet.
	name := cmd.Args[0]
	if !pr.name.CompareAndSwap(nil, &name) {
		return
	}

	p.Logger().Info("client connected",
		zap.String("name", name),
		zap.Strings("extensions", cmd.Args[1:]),
	)
	metrics.Handshakes.Inc()

	if pr.onNamed != nil {
		pr.onNamed(p, name)
	}

	p.SendMessage(protocol.Welcome)
}
