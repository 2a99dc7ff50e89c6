// Package connection turns a raw duplex line stream into a message channel
// with monotonic liveness.
package connection

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/pkg/logger"
	"github.com/omochice/spectrangle-net/pkg/metrics"
)

var (
	// ErrDeadConnection means the transport is no longer usable. It is
	// terminal for the connection that returned it.
	ErrDeadConnection = errors.New("connection is dead")

	// ErrMalformedLine is returned when a caller tries to send a line that
	// contains a line terminator. The connection stays usable.
	ErrMalformedLine = errors.New("line contains a terminator")
)

// Transport abstracts a blocking duplex line stream to one remote endpoint.
// Close must unblock a concurrent ReadLine.
type Transport interface {
	// ReadLine blocks until one full line is available and returns it
	// without its terminator.
	ReadLine() (string, error)

	// WriteLine writes line followed by a terminator and flushes it.
	WriteLine(line string) error

	// Close releases the underlying stream.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// Connection is a line-message channel to one remote endpoint.
//
// Once IsDead returns true it never returns false again. IsDead returning
// false is only a hint: the remote end may already be gone.
type Connection interface {
	IsDead() bool

	// Kill marks the connection dead and releases the transport. Calling it
	// again is a no-op.
	Kill()

	// SendMessage fails with ErrDeadConnection once the connection is dead.
	SendMessage(line string) error

	// ReadMessage blocks for the next line. It fails with ErrDeadConnection
	// once the connection is dead.
	ReadMessage() (string, error)

	RemoteAddr() string
}

// Conn implements Connection on top of a Transport.
type Conn struct {
	transport Transport
	dead      atomic.Bool
	writeMu   sync.Mutex
	log       *zap.Logger
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger used by the connection.
func WithLogger(l *zap.Logger) Option {
	return func(c *Conn) {
		c.log = l
	}
}

// New wraps t. A nil transport yields a connection that is dead from the
// start.
func New(t Transport, opts ...Option) *Conn {
	c := &Conn{transport: t}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.L()
	}
	if t == nil {
		c.dead.Store(true)
	}
	return c
}

// IsDead implements Connection.
func (c *Conn) IsDead() bool {
	return c.dead.Load()
}

// Kill implements Connection.
func (c *Conn) Kill() {
	c.kill(metrics.ReasonLocal)
}

func (c *Conn) kill(reason string) {
	if !c.dead.CompareAndSwap(false, true) {
		return
	}

	metrics.ConnectionsKilled.WithLabelValues(reason).Inc()
	c.log.Debug("killing connection",
		zap.String("remote_addr", c.transport.RemoteAddr()),
		zap.String("reason", reason),
	)

	if err := c.transport.Close(); err != nil {
		c.log.Debug("closing transport", zap.Error(err))
	}
}

// SendMessage implements Connection. Any write failure kills the connection.
func (c *Conn) SendMessage(line string) error {
	if c.IsDead() {
		return ErrDeadConnection
	}
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	c.writeMu.Lock()
	err := c.transport.WriteLine(line)
	c.writeMu.Unlock()

	if err != nil {
		c.kill(metrics.ReasonWriteError)
		return fmt.Errorf("%w: %v", ErrDeadConnection, err)
	}
	return nil
}

// ReadMessage implements Connection. End of stream and read errors both kill
// the connection.
func (c *Conn) ReadMessage() (string, error) {
	if c.IsDead() {
		return "", ErrDeadConnection
	}

	line, err := c.transport.ReadLine()
	if err != nil {
		c.kill(metrics.ReasonReadError)
		return "", fmt.Errorf("%w: %v", ErrDeadConnection, err)
	}
	return line, nil
}

// RemoteAddr implements Connection.
func (c *Conn) RemoteAddr() string {
	if c.transport == nil {
		return ""
	}
	return c.transport.RemoteAddr()
}
