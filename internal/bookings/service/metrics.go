package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ledger transitions. A nil *Metrics records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carpool_booking_transitions_total",
			Help: "Booking status transitions applied by the ledger.",
		}, []string{"to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carpool_booking_transition_failures_total",
			Help: "Booking commands refused by the ledger, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.transitions, m.failures)
	}
	return m
}

func (m *Metrics) transition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) failure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}
