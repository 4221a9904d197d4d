package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MigrationMetrics tracks legacy migration runs.
type MigrationMetrics struct {
	RecordsTotal *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
}

// NewMigrationMetrics creates and registers the migration collectors.
func NewMigrationMetrics(registry prometheus.Registerer) (*MigrationMetrics, error) {
	m := &MigrationMetrics{
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_records_total",
			Help:      "Legacy records processed by the migration, by kind and outcome",
		}, []string{"kind", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "migration_run_duration_seconds",
			Help:      "Duration of a migration run per kind",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"kind"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register migration metrics: %w", err)
	}
	return m, nil
}

// RecordOutcome counts one processed legacy record.
func (m *MigrationMetrics) RecordOutcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveRun records the duration of a run over one kind.
func (m *MigrationMetrics) ObserveRun(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Describe implements the prometheus.Collector interface.
func (m *MigrationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RecordsTotal.Describe(ch)
	m.RunDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *MigrationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RecordsTotal.Collect(ch)
	m.RunDuration.Collect(ch)
}
