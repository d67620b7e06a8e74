// Package metrics defines the Prometheus metrics of the identification
// workflows. Metrics live on their own registry so several instances (one per
// test) can coexist; Handler exposes it over HTTP and WriteText renders it for
// the console.
package metrics

import (
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const namespace = "facegate"

type Metrics struct {
	registry *prometheus.Registry

	// OutcomesTotal counts finished workflows.
	// Labels:
	//   - workflow: "register" or "authorize"
	//   - kind: "success", "rejected" or "fault"
	OutcomesTotal *prometheus.CounterVec

	// ExtractionDuration measures capture-to-signature time.
	// Label:
	//   - result: "ok" or "error"
	ExtractionDuration *prometheus.HistogramVec

	// MatchDistance records the nearest distance of every authorization that
	// found at least one candidate, accepted or not.
	MatchDistance prometheus.Histogram

	// EnrolledUsers is the record count seen by the last store read.
	EnrolledUsers prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		OutcomesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_outcomes_total",
				Help:      "Total number of finished registration and authorization workflows.",
			},
			[]string{"workflow", "kind"},
		),
		ExtractionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "Duration of landmark detection plus signature computation.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"result"},
		),
		MatchDistance: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_distance",
			Help:      "Distance between a query signature and its nearest enrolled signature.",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 11, 12, 15, 20, 40},
		}),
		EnrolledUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enrolled_users",
			Help:      "Number of enrolled identities.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOutcome counts one finished workflow.
func (m *Metrics) ObserveOutcome(workflow, kind string) {
	m.OutcomesTotal.WithLabelValues(workflow, kind).Inc()
}

// ObserveExtraction records how long an extraction took since start.
func (m *Metrics) ObserveExtraction(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ExtractionDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes every metric family in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
