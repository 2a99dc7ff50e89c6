// Package hub turns accepted transports into running peers and keeps track
// of them. Both the TCP and WebSocket servers share a single Hub.
package hub

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/internal/connection"
	"github.com/omochice/spectrangle-net/internal/handshake"
	"github.com/omochice/spectrangle-net/internal/peer"
	"github.com/omochice/spectrangle-net/pkg/logger"
)

// SessionFactory builds the handler that takes over a peer once it is
// named. Returning nil leaves the peer without a session.
type SessionFactory func(p *peer.Peer, name string) peer.Handler

type entry struct {
	protocol *handshake.Protocol
	name     string
}

// Hub manages all connected peers.
type Hub struct {
	mu      sync.RWMutex
	peers   map[*peer.Peer]*entry
	names   map[string]*peer.Peer
	session SessionFactory
	closed  bool
	log     *zap.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger handed to connections and peers.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) {
		h.log = l
	}
}

// WithSessionFactory sets the factory used once a peer completes the
// handshake.
func WithSessionFactory(f SessionFactory) Option {
	return func(h *Hub) {
		h.session = f
	}
}

// New creates a new Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		peers: make(map[*peer.Peer]*entry),
		names: make(map[string]*peer.Peer),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.L()
	}
	return h
}

// Serve runs a peer for t and blocks until its read loop stops. Once the hub
// is closed, Serve kills the connection and returns at once.
func (h *Hub) Serve(t connection.Transport) {
	conn := connection.New(t, connection.WithLogger(h.log))

	var proto *handshake.Protocol
	proto = handshake.New(handshake.OnNamed(func(p *peer.Peer, name string) {
		h.named(p, proto, name)
	}))

	p := peer.New(conn, proto, peer.WithLogger(h.log))

	if !h.register(p, proto) {
		h.log.Debug("hub closed, dropping connection", zap.String("remote_addr", conn.RemoteAddr()))
		conn.Kill()
		return
	}
	defer h.unregister(p)

	p.Run()
}

func (h *Hub) register(p *peer.Peer, proto *handshake.Protocol) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = &entry{protocol: proto}
	return true
}

func (h *Hub) unregister(p *peer.Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.peers[p]
	if !ok {
		return
	}
	delete(h.peers, p)
	if e.name != "" && h.names[e.name] == p {
		delete(h.names, e.name)
	}
}

// named records the peer's name and attaches a session. Duplicate names are
// only logged; rejecting them belongs to the lobby.
func (h *Hub) named(p *peer.Peer, proto *handshake.Protocol, name string) {
	h.mu.Lock()
	if e, ok := h.peers[p]; ok {
		e.name = name
	}
	if other, ok := h.names[name]; ok && other != p {
		h.log.Warn("duplicate player name",
			zap.String("name", name),
			zap.String("peer_id", p.ID()),
			zap.String("existing_peer_id", other.ID()),
		)
	}
	h.names[name] = p
	h.mu.Unlock()

	if h.session != nil {
		if s := h.session(p, name); s != nil {
			proto.Attach(s)
		}
	}
}

// PeerCount returns number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Lookup returns the most recent peer registered under name.
func (h *Hub) Lookup(name string) (*peer.Peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.names[name]
	return p, ok
}

// Names returns the registered names in sorted order.
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.names))
	for name := range h.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close disconnects every peer and turns away later Serve calls. Serve calls
// return as their loops stop.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	peers := make([]*peer.Peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		p.Disconnect()
	}
}
