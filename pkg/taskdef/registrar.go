package taskdef

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/private/protocol/json/jsonutil"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
	"github.com/go-logr/logr"
	"k8s.io/klog/klogr"

	"github.com/variantdev/ecsdeploy/pkg/ecsclient"
	"github.com/variantdev/ecsdeploy/pkg/telemetry"
)

// Revision identifies a registered task definition.
type Revision struct {
	ARN    string `yaml:"arn"`
	Family string `yaml:"family"`
	Number int64  `yaml:"revision"`
}

func (r Revision) String() string {
	return r.ARN
}

type Registrar struct {
	API     ecsiface.ECSAPI
	Logger  logr.Logger
	Metrics *telemetry.Metrics
}

// Decode reads a task definition document in ECS wire format.
func Decode(document string) (*ecs.TaskDefinition, error) {
	var td ecs.TaskDefinition
	if err := jsonutil.UnmarshalJSON(&td, strings.NewReader(document)); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(td.ContainerDefinitions) == 0 {
		return nil, &DecodeError{Err: errors.New("no container definitions")}
	}
	return &td, nil
}

// Register submits document as a new revision of the family named by familyTemplate.
// An empty familyTemplate falls back to the family in the document.
func (r *Registrar) Register(ctx context.Context, familyTemplate, document string, expand func(string) (string, error)) (*Revision, error) {
	logger := r.Logger
	if logger == nil {
		logger = klogr.New()
	}

	td, err := Decode(document)
	if err != nil {
		return nil, err
	}

	family, err := expand(familyTemplate)
	if err != nil {
		return nil, err
	}
	if family == "" {
		family = aws.StringValue(td.Family)
	}
	if family == "" {
		return nil, &ConfigurationError{Msg: "task definition family is empty"}
	}

	in := &ecs.RegisterTaskDefinitionInput{
		Family:                  aws.String(family),
		ContainerDefinitions:    td.ContainerDefinitions,
		Volumes:                 td.Volumes,
		TaskRoleArn:             td.TaskRoleArn,
		ExecutionRoleArn:        td.ExecutionRoleArn,
		NetworkMode:             td.NetworkMode,
		RequiresCompatibilities: td.RequiresCompatibilities,
		Cpu:                     td.Cpu,
		Memory:                  td.Memory,
		PlacementConstraints:    td.PlacementConstraints,
	}

	logger.V(2).Info("taskdef.register.request", "family", family, "containers", len(in.ContainerDefinitions), "volumes", len(in.Volumes))

	out, err := r.API.RegisterTaskDefinitionWithContext(ctx, in)
	if err != nil {
		return nil, ecsclient.Wrap("RegisterTaskDefinition", err)
	}

	rev := &Revision{
		ARN:    aws.StringValue(out.TaskDefinition.TaskDefinitionArn),
		Family: aws.StringValue(out.TaskDefinition.Family),
		Number: aws.Int64Value(out.TaskDefinition.Revision),
	}

	r.Metrics.TaskDefinitionRegistered(rev.Family)

	logger.Info("taskdef.register", "family", rev.Family, "revision", rev.Number, "arn", rev.ARN)

	return rev, nil
}
