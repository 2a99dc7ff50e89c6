// Package tcp provides the TCP transport for the game server.
package tcp

import (
	"bufio"
	"errors"
	"io"
	"net"
)

// MaxLineLength bounds a single received line, terminator excluded.
const MaxLineLength = 64 * 1024

// ErrLineTooLong is returned when a peer sends more than MaxLineLength bytes
// without a terminator.
var ErrLineTooLong = errors.New("tcp: line too long")

// Conn adapts net.Conn to connection.Transport with newline framing.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

// ReadLine implements connection.Transport.
// Both "\n" and "\r\n" terminate a line. A final unterminated line is
// returned before io.EOF is reported.
func (c *Conn) ReadLine() (string, error) {
	var buf []byte
	for {
		chunk, err := c.reader.ReadSlice('\n')
		buf = append(buf, chunk...)

		switch {
		case err == nil:
			return checkLength(trimEOL(buf))
		case errors.Is(err, bufio.ErrBufferFull):
			// Only a trailing '\r' may still turn out to be part of the terminator.
			if len(buf) > MaxLineLength+1 {
				return "", ErrLineTooLong
			}
			continue
		case errors.Is(err, io.EOF) && len(buf) > 0:
			return checkLength(trimEOL(buf))
		default:
			return "", err
		}
	}
}

func checkLength(line string) (string, error) {
	if len(line) > MaxLineLength {
		return "", ErrLineTooLong
	}
	return line, nil
}

// WriteLine implements connection.Transport.
func (c *Conn) WriteLine(line string) error {
	if _, err := c.writer.WriteString(line); err != nil {
		return err
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Close implements connection.Transport.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements connection.Transport.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func trimEOL(b []byte) string {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
		if n > 0 && b[n-1] == '\r' {
			n--
		}
	}
	return string(b[:n])
}
