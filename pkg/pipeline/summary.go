package pipeline

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/variantdev/ecsdeploy/pkg/rollout"
	"github.com/variantdev/ecsdeploy/pkg/taskdef"
)

// Summary records what a run registered and rolled out.
type Summary struct {
	TaskDefinitions []taskdef.Revision `yaml:"taskDefinitions,omitempty"`
	Rollouts        []rollout.Result   `yaml:"rollouts,omitempty"`
	Error           string             `yaml:"error,omitempty"`
}

func (s *Summary) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
