package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/twpayne/go-vfs/vfst"

	"github.com/variantdev/ecsdeploy/pkg/ecsclient"
	"github.com/variantdev/ecsdeploy/pkg/taskdefpatch"
	"github.com/variantdev/ecsdeploy/pkg/workspace"
)

const deployYAML = `
region: us-east-1
credentials:
  profile: ci
  roleARN: arn:aws:iam::123456789012:role/deployer
vars:
  ENV: staging
  REPLICAS: 3
steps:
- registerTaskDefinition:
    family: myapp-{ENV}
    source:
      file: taskdef.json
    changes:
    - path: $.containerDefinitions[0].image
      value: repo/app:{BUILD_NUMBER}
    - path: $.containerDefinitions[0].memory
      value: 512
- updateService:
    cluster: main
    service: myapp-{ENV}
`

func TestLoad(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{"/ws/ecsdeploy.yaml": deployYAML})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	spec, err := Load(workspace.New("/ws", fs), DefaultFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &DeploySpec{
		Region: "us-east-1",
		Credentials: CredentialsSpec{
			Profile: "ci",
			RoleARN: "arn:aws:iam::123456789012:role/deployer",
		},
		Vars: map[string]string{"ENV": "staging", "REPLICAS": "3"},
		Steps: []StepSpec{
			{RegisterTaskDefinition: &RegisterTaskDefinitionSpec{
				Family: "myapp-{ENV}",
				Source: SourceSpec{File: "taskdef.json"},
				Changes: []taskdefpatch.Edit{
					{Path: "$.containerDefinitions[0].image", Value: "repo/app:{BUILD_NUMBER}"},
					{Path: "$.containerDefinitions[0].memory", Value: "512"},
				},
			}},
			{UpdateService: &UpdateServiceSpec{Cluster: "main", Service: "myapp-{ENV}"}},
		},
	}

	if d := cmp.Diff(want, spec); d != "" {
		t.Errorf("unexpected spec (-want +got):\n%s", d)
	}

	if k := spec.Steps[1].Kind(); k != KindUpdateService {
		t.Errorf("unexpected kind: %s", k)
	}

	ecs := spec.ECS("eu-west-1", "")
	wantECS := ecsclient.Config{Region: "eu-west-1", Profile: "ci", RoleARN: "arn:aws:iam::123456789012:role/deployer"}
	if d := cmp.Diff(wantECS, ecs); d != "" {
		t.Errorf("unexpected ecs config: %s", d)
	}

	_, err = Load(workspace.New("/ws", fs), "missing.yaml")
	var werr *workspace.Error
	if !errors.As(err, &werr) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	testcases := []struct {
		yaml    string
		problem string
	}{
		{yaml: ``, problem: "empty"},
		{yaml: `region: us-east-1`, problem: "steps"},
		{yaml: `steps: []`, problem: "steps"},
		{yaml: "steps:\n- restartService: {service: web}\n", problem: "restartService"},
		{yaml: "steps:\n- {}\n", problem: "steps.0"},
		{yaml: "steps:\n- updateService: {service: web}\n  registerTaskDefinition: {source: {file: a.json}}\n", problem: "steps.0"},
		{yaml: "steps:\n- registerTaskDefinition: {source: {file: a.json, existingRevision: myapp:1}}\n", problem: "source"},
		{yaml: "steps:\n- registerTaskDefinition: {source: {}}\n", problem: "source"},
		{yaml: "steps:\n- updateService: {cluster: main}\n", problem: "service"},
		{yaml: "steps:\n- registerTaskDefinition: {source: {file: a.json}, changes: [{path: $.family}]}\n", problem: "value"},
		{yaml: "steps: [", problem: ""},
	}

	for i := range testcases {
		tc := testcases[i]

		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := Parse("ecsdeploy.yaml", []byte(tc.yaml))

			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cerr.File != "ecsdeploy.yaml" || len(cerr.Problems) == 0 {
				t.Errorf("unexpected error detail: %+v", cerr)
			}
			if !strings.Contains(err.Error(), tc.problem) {
				t.Errorf("expected %q in error: %v", tc.problem, err)
			}
		})
	}
}

func TestParse_TaggedSource(t *testing.T) {
	spec, err := Parse("ecsdeploy.yaml", []byte(`
steps:
- registerTaskDefinition:
    source:
      kind: EXISTING_TASK_DEFINITION
      value: myapp:12
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := SourceSpec{Kind: "EXISTING_TASK_DEFINITION", Value: "myapp:12"}
	if d := cmp.Diff(want, spec.Steps[0].RegisterTaskDefinition.Source); d != "" {
		t.Errorf("unexpected source: %s", d)
	}
}
