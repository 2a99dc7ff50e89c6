package connection_test

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/omochice/spectrangle-net/internal/connection"
)

// mockTransport is an in-memory connection.Transport. Lines pushed on readCh
// are returned by ReadLine; closing readCh simulates a clean remote close.
type mockTransport struct {
	readCh     chan string
	closed     chan struct{}
	closeOnce  sync.Once
	closeCount atomic.Int32
	writtenMu  sync.Mutex
	written    []string
	writeErr   error
	readErr    error
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		readCh: make(chan string, 10),
		closed: make(chan struct{}),
	}
}

func (m *mockTransport) ReadLine() (string, error) {
	if m.readErr != nil {
		return "", m.readErr
	}
	select {
	case <-m.closed:
		return "", net.ErrClosed
	case line, ok := <-m.readCh:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (m *mockTransport) WriteLine(line string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	select {
	case <-m.closed:
		return net.ErrClosed
	default:
	}
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	m.written = append(m.written, line)
	return nil
}

func (m *mockTransport) Close() error {
	m.closeCount.Add(1)
	m.closeOnce.Do(func() {
		close(m.closed)
	})
	return nil
}

func (m *mockTransport) RemoteAddr() string {
	return "mock:1234"
}

func (m *mockTransport) GetWritten() []string {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	return append([]string(nil), m.written...)
}

var errBrokenPipe = errors.New("broken pipe")

// Compile-time check that mockTransport implements connection.Transport
var _ connection.Transport = (*mockTransport)(nil)
