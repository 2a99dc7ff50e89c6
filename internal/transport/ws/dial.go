package ws

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/ws"
)

// Dial opens a client WebSocket to address, which may be a bare host:port
// or a ws:// URL.
func Dial(ctx context.Context, address string) (*Conn, error) {
	url := address
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		url = "ws://" + address + "/"
	}

	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewClientConn(conn, br), nil
}
