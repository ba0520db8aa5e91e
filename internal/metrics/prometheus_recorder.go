package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder backed by a private registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	unitDuration    *prometheus.HistogramVec
	unitResults     *prometheus.CounterVec
	installDuration prometheus.Histogram
	batchOutcomes   *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder with its own registry so the CLI
// never collides with default-registry users.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		unitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "presencec_unit_compile_duration_seconds",
			Help:    "Duration of a single presence compilation.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"presence"}),
		unitResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "presencec_unit_results_total",
			Help: "Per-unit compile results by category.",
		}, []string{"result"}),
		installDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "presencec_install_duration_seconds",
			Help:    "Duration of dependency installation runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		batchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "presencec_batch_outcomes_total",
			Help: "Batch compile outcomes.",
		}, []string{"outcome"}),
	}
}

func (r *PrometheusRecorder) ObserveUnitDuration(presence string, d time.Duration) {
	r.unitDuration.WithLabelValues(presence).Observe(d.Seconds())
}

func (r *PrometheusRecorder) IncUnitResult(result ResultLabel) {
	r.unitResults.WithLabelValues(string(result)).Inc()
}

func (r *PrometheusRecorder) ObserveInstallDuration(d time.Duration) {
	r.installDuration.Observe(d.Seconds())
}

func (r *PrometheusRecorder) IncBatchOutcome(outcome string) {
	r.batchOutcomes.WithLabelValues(outcome).Inc()
}

// Handler exposes the recorder's registry for a /metrics endpoint.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (used by tests).
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }
