// Package metrics exposes Prometheus instrumentation for the realtime layer.
//
// All methods are safe on a nil *Metrics so components can run
// uninstrumented in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sukoon"

// Metrics holds the realtime collectors.
type Metrics struct {
	sessions      prometheus.Gauge
	pendingCalls  prometheus.Gauge
	callsResolved *prometheus.CounterVec
	relayDropped  *prometheus.CounterVec
	missedCalls   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_bound",
			Help:      "Users currently bound to a live connection.",
		}),
		pendingCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_pending",
			Help:      "Call attempts waiting for answer, rejection, end or timeout.",
		}),
		callsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_resolved_total",
			Help:      "Call attempts removed from the ledger, by terminal event.",
		}, []string{"outcome"}),
		relayDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_dropped_total",
			Help:      "Events dropped because the target user had no live session.",
		}, []string{"event"}),
		missedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missed_call_notifications_total",
			Help:      "Missed-call notification processing results.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.sessions, m.pendingCalls, m.callsResolved, m.relayDropped, m.missedCalls)
	return m
}

// SetSessions records the number of bound users.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// SetPendingCalls records the ledger size.
func (m *Metrics) SetPendingCalls(n int) {
	if m == nil {
		return
	}
	m.pendingCalls.Set(float64(n))
}

// CallResolved counts a ledger removal for outcome.
func (m *Metrics) CallResolved(outcome string) {
	if m == nil {
		return
	}
	m.callsResolved.WithLabelValues(outcome).Inc()
}

// RelayDropped counts an undeliverable event.
func (m *Metrics) RelayDropped(event string) {
	if m == nil {
		return
	}
	m.relayDropped.WithLabelValues(event).Inc()
}

// MissedCall counts a notifier result ("persisted", "persist_failed",
// "pushed", "dropped").
func (m *Metrics) MissedCall(result string) {
	if m == nil {
		return
	}
	m.missedCalls.WithLabelValues(result).Inc()
}
