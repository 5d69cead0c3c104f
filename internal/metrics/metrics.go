// Package metrics provides Prometheus metrics for runbox's sandbox and
// pipeline execution, adapted from the teacher's internal/metrics
// promauto/sync.Once singleton pattern, scoped to this domain's
// execution/classification/engine-latency concerns.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds runbox's Prometheus collectors.
type Metrics struct {
	StageSetupDuration   *prometheus.HistogramVec
	StageSetupTotal      *prometheus.CounterVec
	ClassificationTotal  *prometheus.CounterVec
	EngineCallDuration   *prometheus.HistogramVec
	SandboxesInFlight    prometheus.Gauge
	PipelineGroupsTotal  *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// Get returns the process-wide Metrics singleton, registering its
// collectors with the default registry on first call.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			StageSetupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "runbox",
				Subsystem: "pipeline",
				Name:      "stage_setup_duration_seconds",
				Help:      "Duration of a stage's Setup call.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"kind"}),
			StageSetupTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "runbox",
				Subsystem: "pipeline",
				Name:      "stage_setup_total",
				Help:      "Total stage Setup calls by kind and outcome.",
			}, []string{"kind", "outcome"}),
			ClassificationTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "runbox",
				Subsystem: "sandbox",
				Name:      "classification_total",
				Help:      "Sandbox termination classification outcomes (ok, oom, tle, re).",
			}, []string{"classification"}),
			EngineCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "runbox",
				Subsystem: "engine",
				Name:      "call_duration_seconds",
				Help:      "Duration of a single engine adapter operation.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			SandboxesInFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "runbox",
				Subsystem: "sandbox",
				Name:      "in_flight",
				Help:      "Number of sandboxes currently running.",
			}),
			PipelineGroupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "runbox",
				Subsystem: "pipeline",
				Name:      "groups_total",
				Help:      "Total group executions by outcome (done, failed).",
			}, []string{"outcome"}),
		}
	})
	return instance
}
