package rollout

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
	"github.com/go-logr/logr"
	"k8s.io/klog/klogr"

	"github.com/variantdev/ecsdeploy/pkg/ecsclient"
	"github.com/variantdev/ecsdeploy/pkg/telemetry"
)

type State string

const (
	StateInit      State = "INIT"
	StateUpdating  State = "UPDATING"
	StatePolling   State = "POLLING"
	StateConverged State = "CONVERGED"
	StateTimedOut  State = "TIMED_OUT"
	StateFailed    State = "FAILED"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 60
)

// Target names the service to roll and the revision to roll it to. All fields are templates.
type Target struct {
	Cluster  string
	Service  string
	Revision string
}

type Result struct {
	State        State         `yaml:"state"`
	Cluster      string        `yaml:"cluster,omitempty"`
	Service      string        `yaml:"service"`
	Revision     string        `yaml:"taskDefinition"`
	DesiredCount int64         `yaml:"desiredCount"`
	Attempts     int           `yaml:"attempts"`
	Elapsed      time.Duration `yaml:"elapsed"`
}

// SleepFunc waits for d. It must return early with an error once ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ClockSleep waits on a timer from c.
func ClockSleep(c clock.Clock) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		t := c.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C():
			return nil
		}
	}
}

// Monitor updates a service and polls its deployments until they settle.
type Monitor struct {
	API         ecsiface.ECSAPI
	Out         io.Writer
	Logger      logr.Logger
	Clock       clock.Clock
	Sleep       SleepFunc
	Interval    time.Duration
	MaxAttempts int
	Metrics     *telemetry.Metrics
}

type Option func(*Monitor)

func Logger(l logr.Logger) Option {
	return func(m *Monitor) { m.Logger = l }
}

func Out(w io.Writer) Option {
	return func(m *Monitor) { m.Out = w }
}

func Clock(c clock.Clock) Option {
	return func(m *Monitor) { m.Clock = c }
}

func Sleep(f SleepFunc) Option {
	return func(m *Monitor) { m.Sleep = f }
}

func Interval(d time.Duration) Option {
	return func(m *Monitor) { m.Interval = d }
}

func MaxAttempts(n int) Option {
	return func(m *Monitor) { m.MaxAttempts = n }
}

func Metrics(metrics *telemetry.Metrics) Option {
	return func(m *Monitor) { m.Metrics = metrics }
}

func New(api ecsiface.ECSAPI, opts ...Option) *Monitor {
	m := &Monitor{API: api}
	for _, o := range opts {
		o(m)
	}

	if m.Logger == nil {
		m.Logger = klogr.New()
	}
	if m.Out == nil {
		m.Out = os.Stdout
	}
	if m.Clock == nil {
		m.Clock = clock.NewClock()
	}
	if m.Sleep == nil {
		m.Sleep = ClockSleep(m.Clock)
	}
	if m.Interval <= 0 {
		m.Interval = DefaultInterval
	}
	if m.MaxAttempts <= 0 {
		m.MaxAttempts = DefaultMaxAttempts
	}

	return m
}

// Rollout points the service at the target revision and waits for it to converge.
// The returned Result is never nil and carries the terminal state, also on error.
func (m *Monitor) Rollout(ctx context.Context, target Target, expand func(string) (string, error)) (*Result, error) {
	res := &Result{State: StateInit}
	start := m.Clock.Now()

	defer func() {
		res.Elapsed = m.Clock.Since(start)
		m.Metrics.RolloutFinished(string(res.State), res.Elapsed)
	}()

	fail := func(err error) (*Result, error) {
		m.Logger.V(1).Info("rollout.failed", "service", res.Service, "cluster", res.Cluster, "from", string(res.State), "error", err.Error())
		res.State = StateFailed
		return res, err
	}

	var err error

	if res.Cluster, err = expand(target.Cluster); err != nil {
		return fail(err)
	}
	if res.Service, err = expand(target.Service); err != nil {
		return fail(err)
	}

	svc, err := m.describe(ctx, res)
	if err != nil {
		return fail(err)
	}

	// The target count is fixed by the first snapshot and never re-read.
	res.DesiredCount = aws.Int64Value(svc.DesiredCount)

	res.State = StateUpdating

	if res.Revision, err = expand(target.Revision); err != nil {
		return fail(err)
	}

	_, err = m.API.UpdateServiceWithContext(ctx, &ecs.UpdateServiceInput{
		Cluster:        clusterParam(res.Cluster),
		Service:        aws.String(res.Service),
		DesiredCount:   aws.Int64(res.DesiredCount),
		TaskDefinition: aws.String(res.Revision),
	})
	if err != nil {
		return fail(m.apiError(ctx, res, "UpdateService", err))
	}

	m.Logger.Info("rollout.update", "service", res.Service, "cluster", res.Cluster, "taskDefinition", res.Revision, "desiredCount", res.DesiredCount)

	res.State = StatePolling

	fmt.Fprintln(m.Out, "Current deployments:")

	for attempt := 1; attempt <= m.MaxAttempts; attempt++ {
		if err := m.Sleep(ctx, m.Interval); err != nil {
			return fail(m.cancelled(res, err))
		}
		if err := ctx.Err(); err != nil {
			return fail(m.cancelled(res, err))
		}

		svc, err := m.describe(ctx, res)
		if err != nil {
			return fail(err)
		}

		res.Attempts = attempt
		m.Metrics.RolloutAttempt()

		writeTable(m.Out, svc.Deployments)

		stable := Stable(svc.Deployments)

		m.Logger.V(1).Info("rollout.poll", "service", res.Service, "attempt", attempt, "deployments", len(svc.Deployments), "stable", stable)

		if stable {
			res.State = StateConverged
			m.Logger.Info("rollout.converged", "service", res.Service, "cluster", res.Cluster, "attempts", attempt)
			return res, nil
		}
	}

	res.State = StateTimedOut

	return res, &TimedOutError{Cluster: res.Cluster, Service: res.Service, Attempts: res.Attempts}
}

func (m *Monitor) describe(ctx context.Context, res *Result) (*ecs.Service, error) {
	out, err := m.API.DescribeServicesWithContext(ctx, &ecs.DescribeServicesInput{
		Cluster:  clusterParam(res.Cluster),
		Services: []*string{aws.String(res.Service)},
	})
	if err != nil {
		return nil, m.apiError(ctx, res, "DescribeServices", err)
	}

	if len(out.Services) == 0 {
		var failures []string
		for _, f := range out.Failures {
			failures = append(failures, fmt.Sprintf("%s (%s)", aws.StringValue(f.Arn), aws.StringValue(f.Reason)))
		}
		return nil, &ServiceNotFoundError{Cluster: res.Cluster, Service: res.Service, Failures: failures}
	}

	if len(out.Services) > 1 {
		m.Logger.V(1).Info("rollout.describe.ambiguous", "service", res.Service, "cluster", res.Cluster, "matches", len(out.Services))
	}

	return out.Services[0], nil
}

func (m *Monitor) apiError(ctx context.Context, res *Result, op string, err error) error {
	if ctx.Err() != nil {
		return m.cancelled(res, ctx.Err())
	}
	return ecsclient.Wrap(op, err)
}

func (m *Monitor) cancelled(res *Result, err error) error {
	return &CancelledError{Cluster: res.Cluster, Service: res.Service, Attempts: res.Attempts, Err: err}
}

func clusterParam(c string) *string {
	if c == "" {
		return nil
	}
	return aws.String(c)
}
