package rollout

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ecs"
)

const StatusPrimary = "PRIMARY"

// Stable reports whether a service has settled on a single PRIMARY deployment running every desired task.
// Any other deployment, draining or failing, keeps the rollout polling.
func Stable(deployments []*ecs.Deployment) bool {
	if len(deployments) != 1 {
		return false
	}
	d := deployments[0]
	return strings.EqualFold(aws.StringValue(d.Status), StatusPrimary) &&
		aws.Int64Value(d.DesiredCount) == aws.Int64Value(d.RunningCount)
}
