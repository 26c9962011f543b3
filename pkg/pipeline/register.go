package pipeline

import (
	"context"
	"strconv"

	"github.com/variantdev/ecsdeploy/pkg/config"
	"github.com/variantdev/ecsdeploy/pkg/taskdef"
	"github.com/variantdev/ecsdeploy/pkg/taskdefpatch"
)

const (
	VarTaskDefinitionARN      = "TASK_DEFINITION_ARN"
	VarTaskDefinitionFamily   = "TASK_DEFINITION_FAMILY"
	VarTaskDefinitionRevision = "TASK_DEFINITION_REVISION"
)

// RegisterTaskDefinitionStep resolves a base document, applies Changes and registers the result.
type RegisterTaskDefinitionStep struct {
	Family  string
	Source  taskdef.Source
	Changes []taskdefpatch.Edit
}

func (s *RegisterTaskDefinitionStep) Kind() string {
	return config.KindRegisterTaskDefinition
}

// Render returns the patched document without registering it.
func (s *RegisterTaskDefinitionStep) Render(ctx context.Context, run *Run) (string, error) {
	src, err := taskdef.ExpandSource(s.Source, run.Vars.Expand)
	if err != nil {
		return "", err
	}

	r := &taskdef.Resolver{API: run.API, Workspace: run.Workspace, Logger: run.Logger}

	text, err := r.Resolve(ctx, src)
	if err != nil {
		return "", err
	}

	patched, err := taskdefpatch.Apply([]byte(text), s.Changes, run.Vars.Expand)
	if err != nil {
		return "", err
	}

	run.Logger.V(1).Info("taskdef.patch", "source", src.String(), "changes", len(s.Changes))

	return string(patched), nil
}

func (s *RegisterTaskDefinitionStep) Perform(ctx context.Context, run *Run) error {
	doc, err := s.Render(ctx, run)
	if err != nil {
		return err
	}

	reg := &taskdef.Registrar{API: run.API, Logger: run.Logger, Metrics: run.Metrics}

	rev, err := reg.Register(ctx, s.Family, doc, run.Vars.Expand)
	if err != nil {
		return err
	}

	run.Vars.Set(VarTaskDefinitionARN, rev.ARN)
	run.Vars.Set(VarTaskDefinitionFamily, rev.Family)
	run.Vars.Set(VarTaskDefinitionRevision, strconv.FormatInt(rev.Number, 10))

	run.Summary.TaskDefinitions = append(run.Summary.TaskDefinitions, *rev)

	return nil
}
