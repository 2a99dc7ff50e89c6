// Package peer runs the read loop for one connection and dispatches every
// received line to a protocol Handler.
package peer

import (
	"errors"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/internal/connection"
	"github.com/omochice/spectrangle-net/pkg/logger"
	"github.com/omochice/spectrangle-net/pkg/metrics"
	"github.com/omochice/spectrangle-net/pkg/protocol"
)

// Handler gives protocol meaning to received lines. HandleMessage is called
// from the peer's read loop, one line at a time, in arrival order.
type Handler interface {
	HandleMessage(p *Peer, line string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(p *Peer, line string)

// HandleMessage implements Handler.
func (f HandlerFunc) HandleMessage(p *Peer, line string) {
	f(p, line)
}

// Peer owns one Connection. Its liveness only moves from connected to
// disconnected, on a failed read, a failed send or Disconnect.
type Peer struct {
	id        string
	conn      connection.Connection
	handler   Handler
	connected atomic.Bool
	started   atomic.Bool
	done      chan struct{}
	log       *zap.Logger
}

// Option configures a Peer.
type Option func(*Peer)

// WithLogger sets the base logger; peer fields are added to it.
func WithLogger(l *zap.Logger) Option {
	return func(p *Peer) {
		p.log = l
	}
}

// WithID overrides the generated peer ID.
func WithID(id string) Option {
	return func(p *Peer) {
		p.id = id
	}
}

// New creates a peer for conn. The peer starts disconnected if conn is
// already dead or nil.
func New(conn connection.Connection, handler Handler, opts ...Option) *Peer {
	if conn == nil {
		conn = connection.New(nil)
	}
	p := &Peer{
		id:      uuid.NewString(),
		conn:    conn,
		handler: handler,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.L()
	}
	p.log = p.log.With(
		zap.String("peer_id", p.id),
		zap.String("remote_addr", conn.RemoteAddr()),
	)
	p.connected.Store(!conn.IsDead())
	return p
}

// ID returns the peer's unique identifier.
func (p *Peer) ID() string {
	return p.id
}

// Connection returns the owned connection, for takeover by a session layer.
func (p *Peer) Connection() connection.Connection {
	return p.conn
}

// Logger returns the peer-scoped logger.
func (p *Peer) Logger() *zap.Logger {
	return p.log
}

// IsConnected reports whether no read or send has failed and the connection
// has not been killed.
func (p *Peer) IsConnected() bool {
	return p.connected.Load() && !p.conn.IsDead()
}

// Done is closed when the read loop has exited.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Start runs the read loop in its own goroutine.
func (p *Peer) Start() {
	go p.Run()
}

// Run reads lines until the connection dies, handing each one to the
// handler before reading the next. A peer may only be run once; later calls
// return immediately.
func (p *Peer) Run() {
	if !p.started.CompareAndSwap(false, true) {
		p.log.Warn("read loop already started")
		return
	}
	defer close(p.done)

	metrics.PeersConnected.Inc()
	defer metrics.PeersConnected.Dec()

	for p.connected.Load() {
		line, err := p.conn.ReadMessage()
		if err != nil {
			p.connected.Store(false)
			p.log.Debug("read failed", zap.Error(err))
			break
		}

		metrics.MessagesReceived.Inc()
		p.dispatch(line)
	}

	p.log.Info("connection read loop stopping")
}

// dispatch calls the handler. A panicking handler takes its own peer down
// instead of the process.
func (p *Peer) dispatch(line string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("handler panic",
				zap.Any("panic", r),
				zap.String("line", line),
				zap.ByteString("stack", debug.Stack()),
			)
			p.Disconnect()
		}
	}()
	p.handler.HandleMessage(p, line)
}

// SendMessage sends line to the remote end. It never reports failure to the
// caller: a dead connection flips the peer to disconnected, observable
// through IsConnected.
func (p *Peer) SendMessage(line string) {
	if !p.connected.Load() {
		return
	}

	if err := p.conn.SendMessage(line); err != nil {
		if errors.Is(err, connection.ErrDeadConnection) {
			p.connected.Store(false)
			p.log.Debug("send failed, peer disconnected", zap.Error(err))
			return
		}
		p.log.Warn("dropping outgoing message", zap.Error(err))
		return
	}
	metrics.MessagesSent.Inc()
}

// SendInvalidCommandError logs err and sends the invalidCommand sentinel.
func (p *Peer) SendInvalidCommandError(err error) {
	p.log.Info("invalid command", zap.Error(err))
	metrics.InvalidCommands.Inc()
	p.SendMessage(protocol.InvalidCommand)
}

// Disconnect marks the peer disconnected and kills its connection, which
// unblocks a pending read.
func (p *Peer) Disconnect() {
	p.connected.Store(false)
	p.conn.Kill()
}
