package pipeline

import (
	"fmt"

	"github.com/variantdev/ecsdeploy/pkg/config"
	"github.com/variantdev/ecsdeploy/pkg/taskdef"
)

// Build turns a deploy file into steps.
func Build(spec *config.DeploySpec) ([]Step, error) {
	var steps []Step

	for i, st := range spec.Steps {
		switch {
		case st.RegisterTaskDefinition != nil:
			r := st.RegisterTaskDefinition
			src, err := sourceFrom(r.Source)
			if err != nil {
				return nil, fmt.Errorf("steps.%d: %w", i, err)
			}
			steps = append(steps, &RegisterTaskDefinitionStep{
				Family:  r.Family,
				Source:  src,
				Changes: r.Changes,
			})
		case st.UpdateService != nil:
			u := st.UpdateService
			steps = append(steps, &UpdateServiceStep{
				Cluster:        u.Cluster,
				Service:        u.Service,
				TaskDefinition: u.TaskDefinition,
			})
		default:
			return nil, fmt.Errorf("steps.%d: %w", i, &taskdef.ConfigurationError{Msg: "step has no kind"})
		}
	}

	return steps, nil
}

func sourceFrom(s config.SourceSpec) (taskdef.Source, error) {
	switch {
	case s.File != "":
		return taskdef.FromFile{Path: s.File}, nil
	case s.ExistingRevision != "":
		return taskdef.FromExistingRevision{ID: s.ExistingRevision}, nil
	}
	return taskdef.ParseSource(s.Kind, s.Value)
}
