package ecsclient

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
)

const testerARNPrefix = "arn:aws:ecs:us-east-1:123456789012"

// Tester is an in-memory ECS API. It keeps registered task definitions and
// serves service snapshots in order, repeating the last one.
//
// Any hook left nil falls back to the in-memory behavior. Calls not covered panic through the embedded nil interface.
type Tester struct {
	ecsiface.ECSAPI

	DescribeTaskDefinitionFunc func(*ecs.DescribeTaskDefinitionInput) (*ecs.DescribeTaskDefinitionOutput, error)
	RegisterTaskDefinitionFunc func(*ecs.RegisterTaskDefinitionInput) (*ecs.RegisterTaskDefinitionOutput, error)
	DescribeServicesFunc       func(*ecs.DescribeServicesInput) (*ecs.DescribeServicesOutput, error)
	UpdateServiceFunc          func(*ecs.UpdateServiceInput) (*ecs.UpdateServiceOutput, error)

	Calls      []string
	Registered []*ecs.RegisterTaskDefinitionInput
	Updates    []*ecs.UpdateServiceInput

	taskDefinitions map[string][]*ecs.TaskDefinition
	services        map[string]*serviceStub
}

type serviceStub struct {
	desiredCount int64
	snapshots    [][]*ecs.Deployment
	served       int
}

func NewTester() *Tester {
	return &Tester{
		taskDefinitions: map[string][]*ecs.TaskDefinition{},
		services:        map[string]*serviceStub{},
	}
}

// AddTaskDefinition stores td as the next revision of its family and returns the stored copy.
func (t *Tester) AddTaskDefinition(td *ecs.TaskDefinition) *ecs.TaskDefinition {
	family := aws.StringValue(td.Family)
	rev := int64(len(t.taskDefinitions[family]) + 1)

	stored := *td
	stored.Revision = aws.Int64(rev)
	stored.TaskDefinitionArn = aws.String(fmt.Sprintf("%s:task-definition/%s:%d", testerARNPrefix, family, rev))
	stored.Status = aws.String(ecs.TaskDefinitionStatusActive)

	t.taskDefinitions[family] = append(t.taskDefinitions[family], &stored)

	return &stored
}

// AddService registers a service whose successive DescribeServices calls return snapshots in order.
func (t *Tester) AddService(cluster, service string, desiredCount int64, snapshots ...[]*ecs.Deployment) {
	t.services[serviceKey(cluster, service)] = &serviceStub{
		desiredCount: desiredCount,
		snapshots:    snapshots,
	}
}

// Deployment builds a deployment entry for AddService.
func Deployment(taskDefinition, status string, desired, pending, running int64) *ecs.Deployment {
	return &ecs.Deployment{
		TaskDefinition: aws.String(taskDefinition),
		Status:         aws.String(status),
		DesiredCount:   aws.Int64(desired),
		PendingCount:   aws.Int64(pending),
		RunningCount:   aws.Int64(running),
		CreatedAt:      aws.Time(time.Date(2019, 10, 14, 9, 0, 0, 0, time.UTC)),
	}
}

func serviceKey(cluster, service string) string {
	if cluster == "" {
		cluster = "default"
	}
	return cluster + "/" + service
}

// CallCount returns how many times op was invoked.
func (t *Tester) CallCount(op string) int {
	n := 0
	for _, c := range t.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (t *Tester) DescribeTaskDefinitionWithContext(_ aws.Context, in *ecs.DescribeTaskDefinitionInput, _ ...request.Option) (*ecs.DescribeTaskDefinitionOutput, error) {
	t.Calls = append(t.Calls, "DescribeTaskDefinition")

	if t.DescribeTaskDefinitionFunc != nil {
		return t.DescribeTaskDefinitionFunc(in)
	}

	id := aws.StringValue(in.TaskDefinition)
	if i := strings.LastIndex(id, "task-definition/"); i >= 0 {
		id = id[i+len("task-definition/"):]
	}

	family, rev := id, 0
	if i := strings.LastIndex(id, ":"); i >= 0 {
		n, err := strconv.Atoi(id[i+1:])
		if err != nil {
			return nil, awserr.New(ecs.ErrCodeClientException, fmt.Sprintf("invalid revision in %q", id), nil)
		}
		family, rev = id[:i], n
	}

	revs := t.taskDefinitions[family]
	if rev == 0 {
		rev = len(revs)
	}
	if rev < 1 || rev > len(revs) {
		return nil, awserr.New(ecs.ErrCodeClientException, "Unable to describe task definition.", nil)
	}

	td := *revs[rev-1]

	return &ecs.DescribeTaskDefinitionOutput{TaskDefinition: &td}, nil
}

func (t *Tester) RegisterTaskDefinitionWithContext(_ aws.Context, in *ecs.RegisterTaskDefinitionInput, _ ...request.Option) (*ecs.RegisterTaskDefinitionOutput, error) {
	t.Calls = append(t.Calls, "RegisterTaskDefinition")
	t.Registered = append(t.Registered, in)

	if t.RegisterTaskDefinitionFunc != nil {
		return t.RegisterTaskDefinitionFunc(in)
	}

	if aws.StringValue(in.Family) == "" {
		return nil, awserr.New(ecs.ErrCodeClientException, "Family is required.", nil)
	}

	stored := t.AddTaskDefinition(&ecs.TaskDefinition{
		Family:                  in.Family,
		ContainerDefinitions:    in.ContainerDefinitions,
		Volumes:                 in.Volumes,
		TaskRoleArn:             in.TaskRoleArn,
		ExecutionRoleArn:        in.ExecutionRoleArn,
		NetworkMode:             in.NetworkMode,
		RequiresCompatibilities: in.RequiresCompatibilities,
		Cpu:                     in.Cpu,
		Memory:                  in.Memory,
		PlacementConstraints:    in.PlacementConstraints,
	})

	return &ecs.RegisterTaskDefinitionOutput{TaskDefinition: stored}, nil
}

func (t *Tester) DescribeServicesWithContext(_ aws.Context, in *ecs.DescribeServicesInput, _ ...request.Option) (*ecs.DescribeServicesOutput, error) {
	t.Calls = append(t.Calls, "DescribeServices")

	if t.DescribeServicesFunc != nil {
		return t.DescribeServicesFunc(in)
	}

	out := &ecs.DescribeServicesOutput{}
	cluster := aws.StringValue(in.Cluster)

	for _, name := range in.Services {
		s, ok := t.services[serviceKey(cluster, aws.StringValue(name))]
		if !ok {
			out.Failures = append(out.Failures, &ecs.Failure{
				Arn:    aws.String(fmt.Sprintf("%s:service/%s", testerARNPrefix, aws.StringValue(name))),
				Reason: aws.String("MISSING"),
			})
			continue
		}

		var deployments []*ecs.Deployment
		if len(s.snapshots) > 0 {
			i := s.served
			if i >= len(s.snapshots) {
				i = len(s.snapshots) - 1
			}
			deployments = s.snapshots[i]
			s.served++
		}

		out.Services = append(out.Services, &ecs.Service{
			ServiceName:  name,
			ClusterArn:   aws.String(fmt.Sprintf("%s:cluster/%s", testerARNPrefix, cluster)),
			DesiredCount: aws.Int64(s.desiredCount),
			Deployments:  deployments,
			Status:       aws.String("ACTIVE"),
		})
	}

	return out, nil
}

func (t *Tester) UpdateServiceWithContext(_ aws.Context, in *ecs.UpdateServiceInput, _ ...request.Option) (*ecs.UpdateServiceOutput, error) {
	t.Calls = append(t.Calls, "UpdateService")
	t.Updates = append(t.Updates, in)

	if t.UpdateServiceFunc != nil {
		return t.UpdateServiceFunc(in)
	}

	s, ok := t.services[serviceKey(aws.StringValue(in.Cluster), aws.StringValue(in.Service))]
	if !ok {
		return nil, awserr.New(ecs.ErrCodeServiceNotFoundException, "Service not found.", nil)
	}

	return &ecs.UpdateServiceOutput{
		Service: &ecs.Service{
			ServiceName:    in.Service,
			DesiredCount:   aws.Int64(s.desiredCount),
			TaskDefinition: in.TaskDefinition,
		},
	}, nil
}
