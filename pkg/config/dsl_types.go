package config

import (
	"github.com/variantdev/ecsdeploy/pkg/ecsclient"
	"github.com/variantdev/ecsdeploy/pkg/taskdefpatch"
)

// DeploySpec is the content of ecsdeploy.yaml.
type DeploySpec struct {
	Region      string            `yaml:"region,omitempty"`
	Endpoint    string            `yaml:"endpoint,omitempty"`
	Credentials CredentialsSpec   `yaml:"credentials,omitempty"`
	Vars        map[string]string `yaml:"vars,omitempty"`
	Steps       []StepSpec        `yaml:"steps"`
}

type CredentialsSpec struct {
	Profile         string `yaml:"profile,omitempty"`
	AccessKeyID     string `yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty"`
	SessionToken    string `yaml:"sessionToken,omitempty"`
	RoleARN         string `yaml:"roleARN,omitempty"`
	RoleSessionName string `yaml:"roleSessionName,omitempty"`
}

// StepSpec holds exactly one step kind.
type StepSpec struct {
	RegisterTaskDefinition *RegisterTaskDefinitionSpec `yaml:"registerTaskDefinition,omitempty"`
	UpdateService          *UpdateServiceSpec          `yaml:"updateService,omitempty"`
}

const (
	KindRegisterTaskDefinition = "registerTaskDefinition"
	KindUpdateService          = "updateService"
)

func (s StepSpec) Kind() string {
	switch {
	case s.RegisterTaskDefinition != nil:
		return KindRegisterTaskDefinition
	case s.UpdateService != nil:
		return KindUpdateService
	}
	return ""
}

type RegisterTaskDefinitionSpec struct {
	Family  string              `yaml:"family,omitempty"`
	Source  SourceSpec          `yaml:"source"`
	Changes []taskdefpatch.Edit `yaml:"changes,omitempty"`
}

// SourceSpec is either {file: path}, {existingRevision: id} or the tagged {kind: FILE, value: path}.
type SourceSpec struct {
	File             string `yaml:"file,omitempty"`
	ExistingRevision string `yaml:"existingRevision,omitempty"`
	Kind             string `yaml:"kind,omitempty"`
	Value            string `yaml:"value,omitempty"`
}

type UpdateServiceSpec struct {
	Cluster        string `yaml:"cluster,omitempty"`
	Service        string `yaml:"service"`
	TaskDefinition string `yaml:"taskDefinition,omitempty"`
}

// ECS returns the client settings. Non-empty overrides win over the file.
func (s *DeploySpec) ECS(region, profile string) ecsclient.Config {
	cfg := ecsclient.Config{
		Region:          s.Region,
		Profile:         s.Credentials.Profile,
		AccessKeyID:     s.Credentials.AccessKeyID,
		SecretAccessKey: s.Credentials.SecretAccessKey,
		SessionToken:    s.Credentials.SessionToken,
		RoleARN:         s.Credentials.RoleARN,
		RoleSessionName: s.Credentials.RoleSessionName,
		Endpoint:        s.Endpoint,
	}
	if region != "" {
		cfg.Region = region
	}
	if profile != "" {
		cfg.Profile = profile
	}
	return cfg
}
