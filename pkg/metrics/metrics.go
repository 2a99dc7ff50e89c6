// Package metrics provides Prometheus instrumentation for the networking core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reasons a connection was killed.
const (
	ReasonLocal      = "local"
	ReasonReadError  = "read_error"
	ReasonWriteError = "write_error"
)

var (
	PeersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spectrangle_peers_connected",
		Help: "Number of peers whose read loop is running",
	})

	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spectrangle_messages_received_total",
		Help: "Total lines received from peers",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spectrangle_messages_sent_total",
		Help: "Total lines successfully sent to peers",
	})

	InvalidCommands = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spectrangle_invalid_commands_total",
		Help: "Total invalidCommand responses sent",
	})

	Handshakes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spectrangle_handshakes_total",
		Help: "Total completed connect handshakes",
	})

	ConnectionsKilled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spectrangle_connections_killed_total",
		Help: "Connections marked dead, by reason",
	}, []string{"reason"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
