package logger

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "swimtimes"

// Metrics tracks operational metrics including counters, gauges, and timings.
// All operations are thread-safe.
//
// Each metric is kept in memory for GetSnapshot and mirrored into a Prometheus
// collector labelled with the metric name.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration

	registry     *prometheus.Registry
	promCounters *prometheus.CounterVec
	promGauges   *prometheus.GaugeVec
	promTimings  *prometheus.HistogramVec
}

// NewMetrics creates a metrics tracker with its own Prometheus registry
func NewMetrics() *Metrics {
	m := &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
		registry: prometheus.NewRegistry(),
		promCounters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Count of pipeline events by name.",
		}, []string{"name"}),
		promGauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "gauge",
			Help:      "Point-in-time pipeline values by name.",
		}, []string{"name"}),
		promTimings: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "duration_seconds",
			Help:      "Duration of pipeline operations by name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"}),
	}
	m.registry.MustRegister(m.promCounters, m.promGauges, m.promTimings)
	return m
}

// Registry returns the Prometheus registry holding this tracker's collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncrCounter increments a counter by 1
func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter increments a counter by delta
func (m *Metrics) AddCounter(name string, delta int64) {
	if delta < 0 {
		return
	}
	m.mu.Lock()
	m.counters[name] += delta
	m.mu.Unlock()
	m.promCounters.WithLabelValues(name).Add(float64(delta))
}

// SetGauge sets a gauge to the specified value, overwriting any previous value.
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	m.gauges[name] = value
	m.mu.Unlock()
	m.promGauges.WithLabelValues(name).Set(value)
}

// RecordTiming records a duration measurement.
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	m.timings[name] = append(m.timings[name], duration)
	m.mu.Unlock()
	m.promTimings.WithLabelValues(name).Observe(duration.Seconds())
}

// GetSnapshot returns a snapshot of all metrics as a map containing:
//   - "counters": map of counter names to values
//   - "gauges": map of gauge names to values
//   - "timings": map of timing names to statistics (count, total, average, min, max)
//
// The snapshot is a deep copy, safe to use concurrently with metric updates.
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]interface{})

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	snapshot["counters"] = counters

	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}
	snapshot["gauges"] = gauges

	timings := make(map[string]map[string]interface{})
	for name, durations := range m.timings {
		if len(durations) == 0 {
			continue
		}

		var total time.Duration
		minD, maxD := durations[0], durations[0]
		for _, d := range durations {
			total += d
			minD = min(minD, d)
			maxD = max(maxD, d)
		}

		timings[name] = map[string]interface{}{
			"count":   len(durations),
			"total":   total.String(),
			"average": (total / time.Duration(len(durations))).String(),
			"min":     minD.String(),
			"max":     maxD.String(),
		}
	}
	snapshot["timings"] = timings

	return snapshot
}

// IncrCounter increments a counter on the default metrics tracker.
func IncrCounter(name string) {
	metrics().IncrCounter(name)
}

// AddCounter adds delta to a counter on the default metrics tracker.
func AddCounter(name string, delta int64) {
	metrics().AddCounter(name, delta)
}

// SetGauge sets a gauge on the default metrics tracker.
func SetGauge(name string, value float64) {
	metrics().SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker.
func RecordTiming(name string, duration time.Duration) {
	metrics().RecordTiming(name, duration)
}

// GetMetricsSnapshot returns a snapshot of all metrics from the default tracker.
func GetMetricsSnapshot() map[string]interface{} {
	return metrics().GetSnapshot()
}

// Registry returns the Prometheus registry of the default tracker.
func Registry() *prometheus.Registry {
	return metrics().Registry()
}
