package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"
	"k8s.io/klog/klogr"

	"github.com/variantdev/ecsdeploy/pkg/macro"
	"github.com/variantdev/ecsdeploy/pkg/rollout"
	"github.com/variantdev/ecsdeploy/pkg/telemetry"
	"github.com/variantdev/ecsdeploy/pkg/workspace"
)

// Pipeline runs steps in order, stopping at the first failure.
type Pipeline struct {
	Steps  []Step
	Logger logr.Logger

	api         ecsiface.ECSAPI
	ws          *workspace.Workspace
	out         io.Writer
	vars        map[string]string
	metrics     *telemetry.Metrics
	summaryFile string
	rolloutOpts []rollout.Option
}

type Option interface {
	SetOption(p *Pipeline) error
}

type optionFunc func(p *Pipeline) error

func (f optionFunc) SetOption(p *Pipeline) error {
	return f(p)
}

func Logger(logger logr.Logger) Option {
	return optionFunc(func(p *Pipeline) error {
		p.Logger = logger
		return nil
	})
}

func API(api ecsiface.ECSAPI) Option {
	return optionFunc(func(p *Pipeline) error {
		p.api = api
		return nil
	})
}

// Workspace binds the directory task definition files are read from.
func Workspace(dir string, fs vfs.FS) Option {
	return optionFunc(func(p *Pipeline) error {
		p.ws = workspace.New(dir, fs)
		return nil
	})
}

func Out(w io.Writer) Option {
	return optionFunc(func(p *Pipeline) error {
		p.out = w
		return nil
	})
}

func Vars(vars map[string]string) Option {
	return optionFunc(func(p *Pipeline) error {
		p.vars = vars
		return nil
	})
}

func Metrics(m *telemetry.Metrics) Option {
	return optionFunc(func(p *Pipeline) error {
		p.metrics = m
		return nil
	})
}

// SummaryFile makes Run write a YAML summary to path, relative to the workspace.
func SummaryFile(path string) Option {
	return optionFunc(func(p *Pipeline) error {
		p.summaryFile = path
		return nil
	})
}

// RolloutOptions are applied to the monitor of every update step.
func RolloutOptions(opts ...rollout.Option) Option {
	return optionFunc(func(p *Pipeline) error {
		p.rolloutOpts = append(p.rolloutOpts, opts...)
		return nil
	})
}

func New(steps []Step, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{Steps: steps}

	for _, o := range opts {
		if err := o.SetOption(p); err != nil {
			return nil, err
		}
	}

	if p.Logger == nil {
		p.Logger = klogr.New()
	}

	if p.out == nil {
		p.out = os.Stdout
	}

	return p, nil
}

func (p *Pipeline) newRun() *Run {
	return &Run{
		API:            p.api,
		Vars:           macro.New(p.vars),
		Workspace:      p.ws,
		Logger:         p.Logger,
		Out:            p.out,
		Metrics:        p.metrics,
		Summary:        &Summary{},
		RolloutOptions: p.rolloutOpts,
	}
}

// Run performs every step. The summary is returned, and written when a summary file is set, also on failure.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	run := p.newRun()

	err := p.perform(ctx, run)
	if err != nil {
		run.Summary.Error = err.Error()
	}

	if p.summaryFile != "" {
		if werr := p.writeSummary(run.Summary); werr != nil {
			if err == nil {
				err = werr
			}
			p.Logger.Info("pipeline.summary", "file", p.summaryFile, "error", werr.Error())
		}
	}

	return run.Summary, err
}

func (p *Pipeline) perform(ctx context.Context, run *Run) error {
	for i, s := range p.Steps {
		kind := s.Kind()

		p.Logger.Info("pipeline.step", "index", i, "kind", kind)

		p.metrics.StepStarted(kind)
		start := time.Now()

		err := s.Perform(ctx, run)

		p.metrics.StepHandled(kind, start, time.Now(), err)

		if err != nil {
			return &StepError{Index: i, Kind: kind, Err: err}
		}
	}
	return nil
}

func (p *Pipeline) writeSummary(s *Summary) error {
	bs, err := s.Marshal()
	if err != nil {
		return err
	}
	return p.ws.WriteFile(p.summaryFile, bs)
}

// Render writes the patched document of every register step to the output without touching any service.
func (p *Pipeline) Render(ctx context.Context) error {
	run := p.newRun()

	rendered := 0
	for i, s := range p.Steps {
		r, ok := s.(*RegisterTaskDefinitionStep)
		if !ok {
			p.Logger.V(1).Info("render.skip", "index", i, "kind", s.Kind())
			continue
		}

		doc, err := r.Render(ctx, run)
		if err != nil {
			return &StepError{Index: i, Kind: r.Kind(), Err: err}
		}

		if _, err := io.WriteString(run.Out, doc); err != nil {
			return err
		}
		rendered++
	}

	if rendered == 0 {
		return fmt.Errorf("nothing to render: no %s step", "registerTaskDefinition")
	}

	return nil
}
