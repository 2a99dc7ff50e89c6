// Package client provides a line client for the game server over TCP or
// WebSocket.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/internal/connection"
	"github.com/omochice/spectrangle-net/internal/transport/tcp"
	"github.com/omochice/spectrangle-net/internal/transport/ws"
	"github.com/omochice/spectrangle-net/pkg/logger"
	"github.com/omochice/spectrangle-net/pkg/protocol"
)

// Network names accepted by Dial.
const (
	NetworkTCP       = "tcp"
	NetworkWebSocket = "ws"
)

var (
	// ErrRejected is returned by Handshake when the server answers with
	// anything but welcome.
	ErrRejected = errors.New("handshake rejected")

	// ErrClosed is returned when the server closed the connection.
	ErrClosed = errors.New("connection closed")
)

// Client sends lines to the server and delivers every received line on
// Lines.
type Client struct {
	transport connection.Transport
	lines     chan string
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to address over network ("tcp" or "ws").
func Dial(ctx context.Context, network, address string) (*Client, error) {
	var t connection.Transport
	switch network {
	case NetworkTCP:
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		t = tcp.NewConn(conn)
	case NetworkWebSocket:
		conn, err := ws.Dial(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		t = conn
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
	return New(t), nil
}

// New starts a client on an established transport.
func New(t connection.Transport) *Client {
	c := &Client{
		transport: t,
		lines:     make(chan string, 16),
		done:      make(chan struct{}),
	}

	c.wg.Add(1)
	go c.receiveLines()

	return c
}

// Lines returns the channel of received lines. It is closed when the
// connection ends.
func (c *Client) Lines() <-chan string {
	return c.lines
}

// Send writes one line to the server.
func (c *Client) Send(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("line %q contains a terminator", line)
	}
	if err := c.transport.WriteLine(line); err != nil {
		return fmt.Errorf("failed to send line: %w", err)
	}
	return nil
}

// Handshake sends the connect command and waits for the reply.
func (c *Client) Handshake(ctx context.Context, name string, extensions ...string) error {
	if err := c.Send(protocol.Connect(name, extensions...).Encode()); err != nil {
		return err
	}

	select {
	case line, ok := <-c.lines:
		if !ok {
			return ErrClosed
		}
		if line != protocol.Welcome {
			return fmt.Errorf("%w: %s", ErrRejected, line)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the server and waits for the receive loop.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.transport.Close()
		c.wg.Wait()
	})
	return err
}

func (c *Client) receiveLines() {
	defer c.wg.Done()
	defer close(c.lines)

	for {
		line, err := c.transport.ReadLine()
		if err != nil {
			select {
			case <-c.done:
			default:
				logger.Debug("client read loop stopping", zap.Error(err))
			}
			return
		}

		select {
		case c.lines <- line:
		case <-c.done:
			return
		}
	}
}
