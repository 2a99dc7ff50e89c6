package peer_test

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/omochice/spectrangle-net/internal/connection"
)

// mockConn is an in-memory connection.Connection.
type mockConn struct {
	readCh    chan string
	killed    chan struct{}
	killOnce  sync.Once
	dead      atomic.Bool
	sentMu    sync.Mutex
	sent      []string
	sendErr   error
	killCount atomic.Int32
}

func newMockConn() *mockConn {
	return &mockConn{
		readCh: make(chan string, 10),
		killed: make(chan struct{}),
	}
}

func (m *mockConn) IsDead() bool {
	return m.dead.Load()
}

func (m *mockConn) Kill() {
	m.killCount.Add(1)
	m.killOnce.Do(func() {
		m.dead.Store(true)
		close(m.killed)
	})
}

func (m *mockConn) SendMessage(line string) error {
	if m.IsDead() {
		return connection.ErrDeadConnection
	}
	if m.sendErr != nil {
		m.Kill()
		return fmt.Errorf("%w: %v", connection.ErrDeadConnection, m.sendErr)
	}
	m.sentMu.Lock()
	defer m.sentMu.Unlock()
	m.sent = append(m.sent, line)
	return nil
}

func (m *mockConn) ReadMessage() (string, error) {
	if m.IsDead() {
		return "", connection.ErrDeadConnection
	}
	select {
	case <-m.killed:
		return "", connection.ErrDeadConnection
	case line, ok := <-m.readCh:
		if !ok {
			m.Kill()
			return "", connection.ErrDeadConnection
		}
		return line, nil
	}
}

func (m *mockConn) RemoteAddr() string {
	return "mock:4000"
}

func (m *mockConn) Sent() []string {
	m.sentMu.Lock()
	defer m.sentMu.Unlock()
	return append([]string(nil), m.sent...)
}

// Compile-time check that mockConn implements connection.Connection
var _ connection.Connection = (*mockConn)(nil)
