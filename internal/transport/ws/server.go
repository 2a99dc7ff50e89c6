package ws

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/internal/hub"
	"github.com/omochice/spectrangle-net/pkg/logger"
)

// HandshakeTimeout bounds the HTTP upgrade of a new connection.
const HandshakeTimeout = 5 * time.Second

// Server accepts WebSocket connections and hands them to a Hub.
type Server struct {
	address  string
	hub      *hub.Hub
	upgrader ws.Upgrader
	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	ready    chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a WebSocket server that uses the provided Hub.
func New(address string, hub *hub.Hub) *Server {
	return &Server{
		address: address,
		hub:     hub,
		conns:   make(map[net.Conn]struct{}),
		ready:   make(chan struct{}),
		quit:    make(chan struct{}),
	}
}

// Start listens and accepts connections until Stop is called.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start WebSocket server: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)

	logger.Info("WebSocket server started", zap.String("addr", listener.Addr().String()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warn("failed to accept WebSocket connection", zap.Error(err))
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return nil
		}
		go s.handleConn(conn)
	}
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Stop closes the listener and every connection it accepted, then waits for
// their peers to stop.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
	})
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	conn.SetDeadline(time.Now().Add(HandshakeTimeout))
	if _, err := s.upgrader.Upgrade(conn); err != nil {
		logger.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", conn.RemoteAddr().String()),
			zap.Error(err),
		)
		conn.Close()
		return
	}
	conn.SetDeadline(time.Time{})

	s.hub.Serve(NewConn(conn))
}
