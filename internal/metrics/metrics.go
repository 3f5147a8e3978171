// Package metrics exposes Prometheus collectors for the acquisition pipeline.
package metrics

import (
	"net/http"

	"heatpump_monitor/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "heatpump"

// Publish sources.
const (
	SourceFresh    = "fresh"
	SourceBuffered = "buffered"
)

// Pipeline holds the pipeline collectors. A nil *Pipeline records nothing.
type Pipeline struct {
	registry *prometheus.Registry

	snapshotsTotal  prometheus.Counter
	invalidReadings *prometheus.CounterVec // by quantity
	publishTotal    *prometheus.CounterVec // by source and result
	bufferDepth     prometheus.Gauge
	bufferEvictions prometheus.Counter
	alertsTotal     *prometheus.CounterVec // by type and result
	readingValue    *prometheus.GaugeVec   // by quantity
}

// New creates the collectors and registers them, plus the Go runtime
// collectors, on a private registry.
func New() *Pipeline {
	m := &Pipeline{
		registry: prometheus.NewRegistry(),

		snapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "snapshots_total",
			Help:      "Snapshots acquired",
		}),
		invalidReadings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "invalid_readings_total",
			Help:      "Readings that failed plausibility validation",
		}, []string{"quantity"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "publish_total",
			Help:      "Publish attempts",
		}, []string{"source", "result"}), // source: fresh, buffered; result: ok, error
		bufferDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "buffer",
			Name:      "depth",
			Help:      "Snapshots waiting in the store-and-forward buffer",
		}),
		bufferEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "buffer",
			Name:      "evictions_total",
			Help:      "Oldest snapshots overwritten because the buffer was full",
		}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "notifications_total",
			Help:      "Alert notification attempts",
		}, []string{"type", "result"}),
		readingValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "value",
			Help:      "Last valid reading per quantity",
		}, []string{"quantity"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.snapshotsTotal,
		m.invalidReadings,
		m.publishTotal,
		m.bufferDepth,
		m.bufferEvictions,
		m.alertsTotal,
		m.readingValue,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Pipeline) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Pipeline) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Pipeline) ObserveSnapshot(s *models.Snapshot) {
	if m == nil {
		return
	}
	m.snapshotsTotal.Inc()
	for _, nr := range s.Readings() {
		if !nr.Reading.Valid {
			m.invalidReadings.WithLabelValues(nr.Name).Inc()
			continue
		}
		m.readingValue.WithLabelValues(nr.Name).Set(nr.Reading.Value)
	}
}

func (m *Pipeline) RecordPublish(source string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.publishTotal.WithLabelValues(source, result).Inc()
}

func (m *Pipeline) SetBufferDepth(n int) {
	if m == nil {
		return
	}
	m.bufferDepth.Set(float64(n))
}

func (m *Pipeline) RecordEviction() {
	if m == nil {
		return
	}
	m.bufferEvictions.Inc()
}

func (m *Pipeline) RecordAlert(t models.AlertType, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.alertsTotal.WithLabelValues(t.Key(), result).Inc()
}
