// internal/common/metrics/metrics.go
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Outcome labels for SubmitAttempts.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeAborted = "aborted"
	OutcomeIgnored = "ignored"
)

// Metrics holds the pipeline collectors on a registry owned by the process
// context rather than the global default registry.
type Metrics struct {
	Registry *prometheus.Registry

	SubmitAttempts    *prometheus.CounterVec
	FieldErrors       *prometheus.CounterVec
	EncodeFailures    *prometheus.CounterVec
	SubmitDuration    *prometheus.HistogramVec
	StoredSubmissions prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SubmitAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "form_submit_attempts_total",
				Help: "Submit triggers by form type and outcome",
			},
			[]string{"form_type", "outcome"},
		),
		FieldErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "form_field_errors_total",
				Help: "Field validation errors by form type and field",
			},
			[]string{"form_type", "field"},
		),
		EncodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "form_image_encode_failures_total",
				Help: "Image encodes that aborted a submit attempt",
			},
			[]string{"form_type"},
		),
		SubmitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "form_submit_duration_seconds",
				Help:    "Duration of submit attempts that reached validation",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"form_type"},
		),
		StoredSubmissions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "form_stored_submissions",
				Help: "Number of submissions held in the store",
			},
		),
	}
}

// WriteText dumps every collected family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Registry.Gather()
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
