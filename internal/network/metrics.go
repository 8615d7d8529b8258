package network

import (
	"github.com/prometheus/client_golang/prometheus"

	m "royale/internal/metrics"
)

type metrics struct {
	// all metrics fields must be exported
	// to be able to return them by Metrics()
	// using reflection
	Connects      prometheus.Counter
	Disconnects   prometheus.Counter
	Broadcasts    prometheus.Counter
	SlowDrops     prometheus.Counter
	CommandErrors prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "relay"

	return metrics{
		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "connects_count",
			Help:      "Number of watcher connections accepted.",
		}),
		Disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "disconnects_count",
			Help:      "Number of watcher connections closed.",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "broadcast_frames_count",
			Help:      "Number of event frames fanned out to watchers.",
		}),
		SlowDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "slow_drops_count",
			Help:      "Number of watchers dropped for not draining their queue.",
		}),
		CommandErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "command_errors_count",
			Help:      "Number of watcher commands that were malformed or rejected.",
		}),
	}
}

// Metrics returns the hub's collectors for registration.
func (h *Hub) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(h.metrics)
}
