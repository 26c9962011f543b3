package taskdef

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/private/protocol/json/jsonutil"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
	"github.com/go-logr/logr"
	"k8s.io/klog/klogr"

	"github.com/variantdev/ecsdeploy/pkg/ecsclient"
	"github.com/variantdev/ecsdeploy/pkg/workspace"
)

// Resolver obtains the raw document a deployment starts from.
type Resolver struct {
	API       ecsiface.ECSAPI
	Workspace *workspace.Workspace
	Logger    logr.Logger
}

// Resolve returns the document text for src. Both sources yield JSON using the ECS API field names.
func (r *Resolver) Resolve(ctx context.Context, src Source) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = klogr.New()
	}

	switch s := src.(type) {
	case FromFile:
		bs, err := r.Workspace.ReadFile(s.Path)
		if err != nil {
			return "", err
		}
		logger.V(1).Info("taskdef.resolve", "source", "file", "path", s.Path, "bytes", len(bs))
		return string(bs), nil
	case FromExistingRevision:
		out, err := r.API.DescribeTaskDefinitionWithContext(ctx, &ecs.DescribeTaskDefinitionInput{
			TaskDefinition: aws.String(s.ID),
		})
		if err != nil {
			return "", ecsclient.Wrap("DescribeTaskDefinition", err)
		}

		text, err := Marshal(out.TaskDefinition)
		if err != nil {
			return "", err
		}

		logger.V(1).Info("taskdef.resolve", "source", "existingRevision", "id", s.ID, "arn", aws.StringValue(out.TaskDefinition.TaskDefinitionArn))

		return text, nil
	}

	return "", unknownSource(src)
}

// Marshal serializes td with the ECS wire field names, indented.
func Marshal(td *ecs.TaskDefinition) (string, error) {
	b, err := jsonutil.BuildJSON(td)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return "", err
	}
	buf.WriteByte('\n')

	return buf.String(), nil
}
