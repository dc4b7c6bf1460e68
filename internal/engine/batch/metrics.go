package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Recorder receives runner and invoker measurements.
type Recorder interface {
	TaskFinished(outcome string)
	ActionAttempt(d time.Duration, ok bool)
	CheckpointSaved(index int)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) TaskFinished(string)               {}
func (NopRecorder) ActionAttempt(time.Duration, bool) {}
func (NopRecorder) CheckpointSaved(int)               {}

// PrometheusRecorder collects batch metrics into its own registry so they
// can be written to a node_exporter textfile after the run.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	tasks           *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	attemptDuration prometheus.Histogram
	checkpointIndex prometheus.Gauge
}

// NewPrometheusRecorder creates a recorder with all apreboot metrics registered.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apreboot_tasks_total",
			Help: "Tasks finished by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apreboot_action_attempts_total",
			Help: "Remote action attempts by result.",
		}, []string{"result"}),
		attemptDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "apreboot_action_duration_seconds",
			Help:    "Duration of remote action attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		checkpointIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "apreboot_checkpoint_index",
			Help: "Next unprocessed task index of the last saved checkpoint.",
		}),
	}

	r.registry.MustRegister(r.tasks, r.attempts, r.attemptDuration, r.checkpointIndex)
	return r
}

// Registry returns the Prometheus registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) TaskFinished(outcome string) {
	r.tasks.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) ActionAttempt(d time.Duration, ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	r.attempts.WithLabelValues(result).Inc()
	r.attemptDuration.Observe(d.Seconds())
}

func (r *PrometheusRecorder) CheckpointSaved(index int) {
	r.checkpointIndex.Set(float64(index))
}

// WriteTextfile writes all metrics in the text exposition format to path.
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
