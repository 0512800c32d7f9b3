package compiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sandrolain/gocondition/pkg/types"
)

const metricsNamespace = "gocondition"

// Metrics holds the Prometheus collectors of a Compiler. A nil *Metrics
// records nothing.
type Metrics struct {
	// CompileTotal counts compile requests.
	// Labels: mode (simple, complex, text), result (hit, built, error)
	CompileTotal *prometheus.CounterVec

	// EvaluateErrorsTotal counts failed evaluations.
	// Labels: mode
	EvaluateErrorsTotal *prometheus.CounterVec

	// BuildDurationSeconds measures translations that ran on a cache miss.
	// Labels: mode
	BuildDurationSeconds *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CompileTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compile_total",
			Help:      "Condition compile requests by mode and result",
		}, []string{"mode", "result"}),
		EvaluateErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evaluate_errors_total",
			Help:      "Failed condition evaluations by mode",
		}, []string{"mode"}),
		BuildDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "build_duration_seconds",
			Help:      "Condition translation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}, []string{"mode"}),
	}
}

func (m *Metrics) compiled(mode types.Mode, result string) {
	if m == nil {
		return
	}
	m.CompileTotal.WithLabelValues(mode.String(), result).Inc()
}

func (m *Metrics) built(mode types.Mode, d time.Duration) {
	if m == nil {
		return
	}
	m.BuildDurationSeconds.WithLabelValues(mode.String()).Observe(d.Seconds())
}

func (m *Metrics) evaluateFailed(mode types.Mode) {
	if m == nil {
		return
	}
	m.EvaluateErrorsTotal.WithLabelValues(mode.String()).Inc()
}
