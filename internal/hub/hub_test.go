package hub_test

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/internal/hub"
	"github.com/omochice/spectrangle-net/internal/peer"
	"github.com/omochice/spectrangle-net/internal/transport/tcp"
)

// remote is the far end of a piped peer.
type remote struct {
	conn   net.Conn
	reader *bufio.Reader
	served chan struct{}
}

func (r *remote) send(t *testing.T, line string) {
	t.Helper()
	_, err := r.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func (r *remote) expect(t *testing.T, want string) {
	t.Helper()
	r.conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := r.reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, want+"\n", line)
}

func serve(h *hub.Hub) *remote {
	server, client := net.Pipe()
	r := &remote{
		conn:   client,
		reader: bufio.NewReader(client),
		served: make(chan struct{}),
	}
	go func() {
		h.Serve(tcp.NewConn(server))
		close(r.served)
	}()
	return r
}

func newHub(opts ...hub.Option) *hub.Hub {
	return hub.New(append([]hub.Option{hub.WithLogger(zap.NewNop())}, opts...)...)
}

func TestHub_Register(t *testing.T) {
	h := newHub()

	r := serve(h)
	defer r.conn.Close()

	assert.Eventually(t, func() bool { return h.PeerCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_Register_MultiplePeers(t *testing.T) {
	h := newHub()

	for i := 0; i < 3; i++ {
		r := serve(h)
		defer r.conn.Close()
	}

	assert.Eventually(t, func() bool { return h.PeerCount() == 3 }, time.Second, 10*time.Millisecond)
}

func TestHub_ServeReturnsOnDisconnect(t *testing.T) {
	h := newHub()
	r := serve(h)

	r.send(t, "connect Alice")
	r.expect(t, "welcome")
	r.conn.Close()

	select {
	case <-r.served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Equal(t, 0, h.PeerCount())
	_, ok := h.Lookup("Alice")
	assert.False(t, ok)
}

func TestHub_LookupAndNames(t *testing.T) {
	h := newHub()

	bob := serve(h)
	defer bob.conn.Close()
	alice := serve(h)
	defer alice.conn.Close()

	bob.send(t, "connect Bob")
	bob.expect(t, "welcome")
	alice.send(t, "connect Alice extension1")
	alice.expect(t, "welcome")

	assert.Equal(t, []string{"Alice", "Bob"}, h.Names())

	p, ok := h.Lookup("Bob")
	require.True(t, ok)
	assert.True(t, p.IsConnected())
}

// Uniqueness belongs to the lobby: a second player may take the same name
// and becomes the one returned by Lookup.
func TestHub_DuplicateNameNotRejected(t *testing.T) {
	h := newHub()

	first := serve(h)
	defer first.conn.Close()
	second := serve(h)
	defer second.conn.Close()

	first.send(t, "connect Alice")
	first.expect(t, "welcome")
	p1, _ := h.Lookup("Alice")

	second.send(t, "connect Alice")
	second.expect(t, "welcome")
	p2, _ := h.Lookup("Alice")

	assert.NotEqual(t, p1.ID(), p2.ID())

	// The first player leaving must not remove the second one's entry.
	first.conn.Close()
	<-first.served

	p, ok := h.Lookup("Alice")
	require.True(t, ok)
	assert.Equal(t, p2.ID(), p.ID())
}

func TestHub_SessionFactory(t *testing.T) {
	got := make(chan string, 1)
	h := newHub(hub.WithSessionFactory(func(p *peer.Peer, name string) peer.Handler {
		return peer.HandlerFunc(func(p *peer.Peer, line string) {
			got <- line
			p.SendMessage("ok")
		})
	}))

	r := serve(h)
	defer r.conn.Close()

	r.send(t, "connect Alice")
	r.expect(t, "welcome")
	r.send(t, "move 1 2")
	r.expect(t, "ok")

	assert.Equal(t, "move 1 2", <-got)
}

func TestHub_Close(t *testing.T) {
	h := newHub()
	r := serve(h)
	defer r.conn.Close()

	assert.Eventually(t, func() bool { return h.PeerCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Close()

	select {
	case <-r.served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Close")
	}
	assert.Equal(t, 0, h.PeerCount())
}

func TestHub_ServeAfterClose(t *testing.T) {
	h := newHub()
	h.Close()

	r := serve(h)
	defer r.conn.Close()

	select {
	case <-r.served:
	case <-time.After(time.Second):
		t.Fatal("Serve kept running after Close")
	}
	assert.Equal(t, 0, h.PeerCount())

	// The transport was closed, so the far end sees the stream end.
	r.conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err := r.reader.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}
