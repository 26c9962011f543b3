package pipeline

import (
	"context"

	"github.com/variantdev/ecsdeploy/pkg/config"
	"github.com/variantdev/ecsdeploy/pkg/rollout"
)

// UpdateServiceStep rolls a service to TaskDefinition, by default the revision registered last.
type UpdateServiceStep struct {
	Cluster        string
	Service        string
	TaskDefinition string
}

func (s *UpdateServiceStep) Kind() string {
	return config.KindUpdateService
}

func (s *UpdateServiceStep) Perform(ctx context.Context, run *Run) error {
	revision := s.TaskDefinition
	if revision == "" {
		revision = "{" + VarTaskDefinitionARN + "}"
	}

	opts := append([]rollout.Option{
		rollout.Logger(run.Logger),
		rollout.Out(run.Out),
		rollout.Metrics(run.Metrics),
	}, run.RolloutOptions...)

	m := rollout.New(run.API, opts...)

	res, err := m.Rollout(ctx, rollout.Target{
		Cluster:  s.Cluster,
		Service:  s.Service,
		Revision: revision,
	}, run.Vars.Expand)

	run.Summary.Rollouts = append(run.Summary.Rollouts, *res)

	return err
}
