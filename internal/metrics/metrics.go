package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "kernfsenv"

// Operation names used as the "operation" label.
const (
	OpProvision = "provision"
	OpStart     = "start"
	OpStop      = "stop"
	OpCollect   = "collect_stats"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder holds the supervisor collectors.
type Recorder struct {
	operations       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	running          prometheus.Gauge
	artifactsRemoved prometheus.Counter

	reg prometheus.Registerer // set while registered
}

// New creates a Recorder and registers its collectors with reg. A nil reg
// leaves the collectors unregistered, which is useful for tests.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of supervisor operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of supervisor operations",
				// Startup on a freshly formatted device can take minutes.
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "service_running",
				Help:      "1 while the supervised service is running",
			},
		),
		artifactsRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "stats_artifacts_removed_total",
				Help:      "Total number of statistics files removed",
			},
		),
	}

	if reg != nil {
		if err := r.Register(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{r.operations, r.duration, r.running, r.artifactsRemoved}
}

// Register adds the collectors to reg. If any of them is rejected the ones
// already added are removed again, so a failed Register leaves reg as it was.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	if r.reg != nil {
		return fmt.Errorf("register metrics: recorder already registered")
	}
	var done []prometheus.Collector
	for _, c := range r.collectors() {
		if err := reg.Register(c); err != nil {
			for _, d := range done {
				reg.Unregister(d)
			}
			return fmt.Errorf("register metrics: %w", err)
		}
		done = append(done, c)
	}
	r.reg = reg
	return nil
}

// Unregister removes the collectors from the registerer they were added to.
// It is nil-safe and does nothing for an unregistered Recorder.
func (r *Recorder) Unregister() {
	if r == nil || r.reg == nil {
		return
	}
	for _, c := range r.collectors() {
		r.reg.Unregister(c)
	}
	r.reg = nil
}

// Observe records one finished operation that started at start.
func (r *Recorder) Observe(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.operations.WithLabelValues(op, outcome).Inc()
	r.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetRunning updates the running gauge.
func (r *Recorder) SetRunning(running bool) {
	if r == nil {
		return
	}
	if running {
		r.running.Set(1)
		return
	}
	r.running.Set(0)
}

// ArtifactsRemoved adds n to the removed statistics files counter.
func (r *Recorder) ArtifactsRemoved(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.artifactsRemoved.Add(float64(n))
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
