// Package metrics holds the protocol engine's prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector aggregates the counters touched by the dispatcher and the
// connection handshake.
type Collector struct {
	FramesReceived    *prometheus.CounterVec
	RepliesSent       prometheus.Counter
	FramesUnhandled   prometheus.Counter
	HandshakeFailures prometheus.Counter
}

// New registers the counters on reg. A nil reg gets a private registry so
// counters stay usable without being exported anywhere.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Collector{
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sysex_frames_received_total",
			Help: "Inbound messages by classified kind.",
		}, []string{"kind"}),
		RepliesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sysex_replies_sent_total",
			Help: "Reply frames sent back over the transport.",
		}),
		FramesUnhandled: factory.NewCounter(prometheus.CounterOpts{
			Name: "sysex_frames_unhandled_total",
			Help: "Frames dropped without a reply: unrecognized input, unknown commands, short payloads.",
		}),
		HandshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sysex_handshake_failures_total",
			Help: "Connection handshakes that failed on either leg.",
		}),
	}
}
