package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LinkerMetrics tracks identity auto-linking.
type LinkerMetrics struct {
	OutcomesTotal *prometheus.CounterVec
}

// NewLinkerMetrics creates and registers the linker collectors.
func NewLinkerMetrics(registry prometheus.Registerer) (*LinkerMetrics, error) {
	m := &LinkerMetrics{
		OutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_outcomes_total",
			Help:      "Identity link attempts by profile kind and outcome",
		}, []string{"kind", "outcome"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register linker metrics: %w", err)
	}
	return m, nil
}

// RecordOutcome counts one link attempt.
func (m *LinkerMetrics) RecordOutcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(kind, outcome).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *LinkerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.OutcomesTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *LinkerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.OutcomesTotal.Collect(ch)
}
