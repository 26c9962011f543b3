// Package telemetry collects batch-job metrics for a deployment run.
//
// A run is short-lived, so metrics are pushed to a Pushgateway once it ends instead of being scraped.
// See:
//   https://godoc.org/github.com/prometheus/client_golang/prometheus/push#Pusher.Push
//   https://prometheus.io/docs/instrumenting/pushing/
package telemetry

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const App = "ecsdeploy"

// Metrics is a prometheus.Collector. All methods are no-ops on a nil *Metrics.
type Metrics struct {
	Steps *MetricSet

	RolloutAttempts prom.Counter
	Rollouts        *prom.CounterVec
	RolloutDuration prom.Histogram
	Registered      *prom.CounterVec
}

func NewMetrics(counterOpts ...CounterOption) *Metrics {
	opts := counterOptions(counterOpts)

	steps := NewMetricSet(App, "step", []string{"step"}, counterOpts...)
	steps.EnableHandlingTimeHistogram()

	return &Metrics{
		Steps: steps,
		RolloutAttempts: prom.NewCounter(opts.apply(prom.CounterOpts{
			Name: App + "_rollout_attempts_total",
			Help: "Total number of deployment polls made while waiting for services to converge.",
		})),
		Rollouts: prom.NewCounterVec(opts.apply(prom.CounterOpts{
			Name: App + "_rollouts_total",
			Help: "Total number of service rollouts by terminal state.",
		}), []string{"outcome"}),
		RolloutDuration: prom.NewHistogram(prom.HistogramOpts{
			Name:    App + "_rollout_duration_seconds",
			Help:    "Time from the service update until the rollout reached a terminal state.",
			Buckets: []float64{5, 15, 30, 60, 120, 180, 240, 300, 600},
		}),
		Registered: prom.NewCounterVec(opts.apply(prom.CounterOpts{
			Name: App + "_task_definitions_registered_total",
			Help: "Total number of task definition revisions registered.",
		}), []string{"family"}),
	}
}

func (m *Metrics) StepStarted(kind string) {
	if m == nil {
		return
	}
	m.Steps.Started([]string{kind})
}

func (m *Metrics) StepHandled(kind string, start, end time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Steps.Handled(start, end, status, []string{kind})
}

func (m *Metrics) RolloutAttempt() {
	if m == nil {
		return
	}
	m.RolloutAttempts.Inc()
}

func (m *Metrics) RolloutFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Rollouts.WithLabelValues(outcome).Inc()
	m.RolloutDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) TaskDefinitionRegistered(family string) {
	if m == nil {
		return
	}
	m.Registered.WithLabelValues(family).Inc()
}

// Describe sends the super-set of all possible descriptors of metrics
// collected by this Collector to the provided channel and returns once
// the last descriptor has been sent.
func (m *Metrics) Describe(ch chan<- *prom.Desc) {
	m.Steps.Describe(ch)
	m.RolloutAttempts.Describe(ch)
	m.Rollouts.Describe(ch)
	m.RolloutDuration.Describe(ch)
	m.Registered.Describe(ch)
}

// Collect is called by the Prometheus registry when collecting
// metrics. The implementation sends each collected metric via the
// provided channel and returns once the last metric has been sent.
func (m *Metrics) Collect(ch chan<- prom.Metric) {
	m.Steps.Collect(ch)
	m.RolloutAttempts.Collect(ch)
	m.Rollouts.Collect(ch)
	m.RolloutDuration.Collect(ch)
	m.Registered.Collect(ch)
}

// pushBase can be something like http://pushgateway:9091 (for pushgateway)
// or http://pushgateway:9091/api/ui (for weaveworks/prom-aggregation-gateway)
func (m *Metrics) Push(pushBase, job string) error {
	if m == nil {
		return nil
	}
	return push.New(pushBase, job).
		Collector(m).
		Push()
}
