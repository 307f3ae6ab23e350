package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts runs and times stages. A nil *Metrics records nothing.
type Metrics struct {
	Runs     *prometheus.CounterVec
	Omitted  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designdoc_exports_total",
				Help: "Export runs by outcome.",
			},
			[]string{"outcome"},
		),
		Omitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designdoc_diagram_omitted_total",
				Help: "Exports that completed without their diagram, by failing stage.",
			},
			[]string{"stage"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "designdoc_stage_duration_seconds",
				Help:    "Duration of pipeline stages.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"stage"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Omitted, m.Duration)
	}
	return m
}

func (m *Metrics) run(outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) omitted(stage string) {
	if m != nil {
		m.Omitted.WithLabelValues(stage).Inc()
	}
}

// since observes the time elapsed from start for stage.
func (m *Metrics) since(stage string, start time.Time) {
	if m != nil {
		m.Duration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
