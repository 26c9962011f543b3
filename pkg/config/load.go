package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/xeipuuv/gojsonschema"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/variantdev/ecsdeploy/pkg/workspace"
)

const DefaultFile = "ecsdeploy.yaml"

// ConfigurationError lists every problem found in a deploy file.
type ConfigurationError struct {
	File     string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration in %s: %s", e.File, strings.Join(e.Problems, "; "))
}

// Load reads and validates the deploy file at path within ws.
func Load(ws *workspace.Workspace, path string) (*DeploySpec, error) {
	bs, err := ws.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, bs)
}

// Parse validates bs against the deploy schema and decodes it.
func Parse(file string, bs []byte) (*DeploySpec, error) {
	if len(bytes.TrimSpace(bs)) == 0 {
		return nil, &ConfigurationError{File: file, Problems: []string{"file is empty"}}
	}

	jsonBytes, err := yaml.YAMLToJSON(bs)
	if err != nil {
		return nil, &ConfigurationError{File: file, Problems: []string{err.Error()}}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(deploySchema),
		gojsonschema.NewBytesLoader(jsonBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("validate: %v", err)
	}

	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &ConfigurationError{File: file, Problems: problems}
	}

	var spec DeploySpec

	dec := yamlv3.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, &ConfigurationError{File: file, Problems: []string{err.Error()}}
	}

	if err := spec.validate(); err != nil {
		return nil, &ConfigurationError{File: file, Problems: []string{err.Error()}}
	}

	return &spec, nil
}

func (s *DeploySpec) validate() error {
	if len(s.Steps) == 0 {
		return errors.New("steps: at least one step is required")
	}
	for i, st := range s.Steps {
		if st.Kind() == "" {
			return fmt.Errorf("steps.%d: exactly one of %s or %s is required", i, KindRegisterTaskDefinition, KindUpdateService)
		}
	}
	return nil
}
