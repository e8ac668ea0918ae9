package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the membership checker.
type Metrics struct {
	MembershipsLoaded prometheus.Gauge
	Imports           prometheus.Counter
	CheckedMembers    *prometheus.CounterVec
	LookUps           prometheus.Counter
}

// New creates the collectors and registers them on reg.
// A nil reg keeps them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MembershipsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "membership_checker_memberships_loaded",
			Help: "Number of distinct memberships in the active index",
		}),
		Imports: f.NewCounter(prometheus.CounterOpts{
			Name: "membership_checker_imports_total",
			Help: "Total number of accepted membership exports",
		}),
		CheckedMembers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_checker_checked_members_total",
			Help: "Total number of checked participants, by result",
		}, []string{"result"}),
		LookUps: f.NewCounter(prometheus.CounterOpts{
			Name: "membership_checker_lookups_total",
			Help: "Total number of manual membership searches",
		}),
	}
}

// ObserveCheck counts one checked participant under its result kind.
func (m *Metrics) ObserveCheck(result string) {
	if m == nil {
		return
	}
	m.CheckedMembers.WithLabelValues(result).Inc()
}
