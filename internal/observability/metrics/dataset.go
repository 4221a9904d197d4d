package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatasetMetrics tracks unified dataset loads.
type DatasetMetrics struct {
	LoadDuration prometheus.Histogram
	LoadErrors   prometheus.Counter
	CacheHits    prometheus.Counter
	Records      *prometheus.GaugeVec
}

// NewDatasetMetrics creates and registers the dataset collectors.
func NewDatasetMetrics(registry prometheus.Registerer) (*DatasetMetrics, error) {
	m := &DatasetMetrics{
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time to build the unified dataset from both sources",
			Buckets:   prometheus.DefBuckets,
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_load_errors_total",
			Help:      "Dataset loads that failed because a source was unreadable",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_hits_total",
			Help:      "Dataset requests served from the cache",
		}),
		Records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Records in the last loaded dataset by entity and origin",
		}, []string{"entity", "origin"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register dataset metrics: %w", err)
	}
	return m, nil
}

// ObserveLoad records a load attempt.
func (m *DatasetMetrics) ObserveLoad(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(d.Seconds())
	if err != nil {
		m.LoadErrors.Inc()
	}
}

// IncCacheHit counts a cache hit.
func (m *DatasetMetrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// SetRecords records the size of the last dataset.
func (m *DatasetMetrics) SetRecords(entity, origin string, n int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(entity, origin).Set(float64(n))
}

// Describe implements the prometheus.Collector interface.
func (m *DatasetMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.LoadDuration.Describe(ch)
	m.LoadErrors.Describe(ch)
	m.CacheHits.Describe(ch)
	m.Records.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *DatasetMetrics) Collect(ch chan<- prometheus.Metric) {
	m.LoadDuration.Collect(ch)
	m.LoadErrors.Collect(ch)
	m.CacheHits.Collect(ch)
	m.Records.Collect(ch)
}
