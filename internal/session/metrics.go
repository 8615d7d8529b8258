package session

import (
	"github.com/prometheus/client_golang/prometheus"

	m "royale/internal/metrics"
)

type metrics struct {
	// all metrics fields must be exported
	// to be able to return them by Metrics()
	// using reflection
	SessionsCreated  prometheus.Counter
	SessionsExpired  prometheus.Counter
	TicksDriven      prometheus.Counter
	CommandsApplied  prometheus.Counter
	CommandsRejected prometheus.Counter
	AgentSpends      prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "session"

	return metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "created_count",
			Help:      "Number of sessions created.",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "expired_count",
			Help:      "Number of finished sessions reaped after their TTL.",
		}),
		TicksDriven: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "ticks_driven_count",
			Help:      "Number of driver ticks fed into session engines.",
		}),
		CommandsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "commands_applied_count",
			Help:      "Number of accepted session commands.",
		}),
		CommandsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "commands_rejected_count",
			Help:      "Number of session commands rejected by match rules.",
		}),
		AgentSpends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "agent_spends_count",
			Help:      "Number of spends issued by autopilot agents.",
		}),
	}
}

// Metrics returns the manager's collectors for registration.
func (mgr *Manager) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(mgr.metrics)
}
