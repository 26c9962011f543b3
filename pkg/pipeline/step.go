package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
	"github.com/go-logr/logr"

	"github.com/variantdev/ecsdeploy/pkg/macro"
	"github.com/variantdev/ecsdeploy/pkg/rollout"
	"github.com/variantdev/ecsdeploy/pkg/telemetry"
	"github.com/variantdev/ecsdeploy/pkg/workspace"
)

// Step is one unit of a deployment.
type Step interface {
	Kind() string
	Perform(ctx context.Context, run *Run) error
}

// Run is the state shared by the steps of one pipeline execution.
type Run struct {
	API       ecsiface.ECSAPI
	Vars      *macro.Expander
	Workspace *workspace.Workspace
	Logger    logr.Logger
	Out       io.Writer
	Metrics   *telemetry.Metrics
	Summary   *Summary

	// Monitor options applied to every rollout.
	RolloutOptions []rollout.Option
}

// StepError is returned by Pipeline.Run for the first failing step.
type StepError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
