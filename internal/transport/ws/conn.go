// Package ws provides the WebSocket transport for the game server. A text or
// binary frame usually carries one protocol line; a frame holding several
// newline-separated lines is split the same way the TCP transport splits a
// stream.
package ws

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// closeTimeout bounds the best-effort close frame written by Close.
const closeTimeout = time.Second

// MaxMessageLength bounds the payload of a single received message.
const MaxMessageLength = 64 * 1024

// ErrMessageTooLong is returned when a peer sends a message larger than
// MaxMessageLength.
var ErrMessageTooLong = errors.New("ws: message too long")

// Conn adapts a WebSocket over net.Conn to connection.Transport.
type Conn struct {
	conn   net.Conn
	reader io.Reader
	state  ws.State

	// pending holds lines left over from a multi-line frame. Only the
	// reading goroutine touches it.
	pending []string

	writeMu sync.Mutex
}

// NewConn wraps the server side of an upgraded connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, reader: conn, state: ws.StateServerSide}
}

// NewClientConn wraps the client side of a dialed connection. br holds any
// bytes the server sent right after the handshake and may be nil.
func NewClientConn(conn net.Conn, br *bufio.Reader) *Conn {
	c := &Conn{conn: conn, reader: conn, state: ws.StateClientSide}
	if br != nil {
		c.reader = br
	}
	return c
}

// ReadLine implements connection.Transport.
// Ping and close frames are answered here; a close frame ends the stream
// with a wsutil.ClosedError.
func (c *Conn) ReadLine() (string, error) {
	if len(c.pending) > 0 {
		line := c.pending[0]
		c.pending = c.pending[1:]
		return line, nil
	}

	rd := &wsutil.Reader{
		Source:         c.reader,
		State:          c.state,
		CheckUTF8:      true,
		OnIntermediate: c.handleControl,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return "", err
		}
		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, rd); err != nil {
				return "", err
			}
			continue
		}

		data, err := io.ReadAll(io.LimitReader(rd, MaxMessageLength+1))
		if err != nil {
			return "", err
		}
		if len(data) > MaxMessageLength {
			return "", ErrMessageTooLong
		}

		lines := splitLines(string(data))
		c.pending = lines[1:]
		return lines[0], nil
	}
}

// splitLines breaks a message on "\n", dropping a "\r" before each break.
// A single trailing terminator does not start another line, so the result
// is never empty.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// handleControl answers a control frame while holding the write lock so the
// reply cannot interleave with an outgoing line.
func (c *Conn) handleControl(hdr ws.Header, r io.Reader) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wsutil.ControlFrameHandler(c.conn, c.state)(hdr, r)
}

// WriteLine implements connection.Transport.
func (c *Conn) WriteLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeMessage(ws.OpText, []byte(line))
}

// Close implements connection.Transport.
// The close frame is skipped when a write is in flight; closing the socket
// then fails that write instead of waiting behind it.
func (c *Conn) Close() error {
	c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
	if c.writeMu.TryLock() {
		_ = c.writeMessage(ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		c.writeMu.Unlock()
	}
	return c.conn.Close()
}

// RemoteAddr implements connection.Transport.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Conn) writeMessage(op ws.OpCode, p []byte) error {
	if c.state.ServerSide() {
		return wsutil.WriteServerMessage(c.conn, op, p)
	}
	return wsutil.WriteClientMessage(c.conn, op, p)
}
