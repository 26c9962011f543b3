package ecsclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ecs"
)

func TestProviderFromConfig(t *testing.T) {
	testcases := []struct {
		cfg  Config
		want string
	}{
		{cfg: Config{}, want: "ecsclient.DefaultCredentials"},
		{cfg: Config{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}, want: "*ecsclient.StaticCredentials"},
		{cfg: Config{RoleARN: "arn:aws:iam::123456789012:role/deployer"}, want: "*ecsclient.AssumeRole"},
	}

	for i := range testcases {
		tc := testcases[i]

		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			got := fmt.Sprintf("%T", ProviderFromConfig(tc.cfg))
			if got != tc.want {
				t.Errorf("unexpected provider: expected=%s, got=%s", tc.want, got)
			}
		})
	}
}

func TestStaticCredentials(t *testing.T) {
	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String("us-east-1")}))

	creds, err := (&StaticCredentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET", SessionToken: "TOKEN"}).Credentials(sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := creds.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AccessKeyID != "AKID" || v.SecretAccessKey != "SECRET" || v.SessionToken != "TOKEN" {
		t.Errorf("unexpected credentials: %+v", v)
	}

	if _, err := (&StaticCredentials{AccessKeyID: "AKID"}).Credentials(sess); err == nil {
		t.Errorf("expected error for incomplete static credentials")
	}

	if _, err := (&AssumeRole{}).Credentials(sess); err == nil {
		t.Errorf("expected error for assume role without arn")
	}
}

func TestNew(t *testing.T) {
	api, err := New(Config{Region: "us-west-2", AccessKeyID: "AKID", SecretAccessKey: "SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc, ok := api.(*ecs.ECS)
	if !ok {
		t.Fatalf("unexpected client type %T", api)
	}
	if r := aws.StringValue(svc.Client.Config.Region); r != "us-west-2" {
		t.Errorf("unexpected region: %s", r)
	}

	v, err := svc.Client.Config.Credentials.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AccessKeyID != "AKID" {
		t.Errorf("unexpected access key id: %s", v.AccessKeyID)
	}
}

func TestTransportError(t *testing.T) {
	err := Wrap("UpdateService", awserr.New(ecs.ErrCodeServiceNotFoundException, "Service not found.", nil))

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("unexpected error type %T", err)
	}
	if terr.Code() != ecs.ErrCodeServiceNotFoundException {
		t.Errorf("unexpected code: %s", terr.Code())
	}
	if terr.Op != "UpdateService" {
		t.Errorf("unexpected op: %s", terr.Op)
	}

	if Wrap("UpdateService", nil) != nil {
		t.Errorf("expected nil for nil cause")
	}

	if (&TransportError{Op: "x", Err: errors.New("boom")}).Code() != "" {
		t.Errorf("expected empty code for plain error")
	}
}

func TestTester(t *testing.T) {
	ecsAPI := NewTester()
	ctx := context.Background()

	out, err := ecsAPI.RegisterTaskDefinitionWithContext(ctx, &ecs.RegisterTaskDefinitionInput{
		Family: aws.String("myapp"),
		ContainerDefinitions: []*ecs.ContainerDefinition{
			{Name: aws.String("app"), Image: aws.String("repo/app:1")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.StringValue(out.TaskDefinition.TaskDefinitionArn); got != testerARNPrefix+":task-definition/myapp:1" {
		t.Errorf("unexpected arn: %s", got)
	}

	for _, id := range []string{"myapp", "myapp:1", testerARNPrefix + ":task-definition/myapp:1"} {
		d, err := ecsAPI.DescribeTaskDefinitionWithContext(ctx, &ecs.DescribeTaskDefinitionInput{TaskDefinition: aws.String(id)})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", id, err)
		}
		if img := aws.StringValue(d.TaskDefinition.ContainerDefinitions[0].Image); img != "repo/app:1" {
			t.Errorf("%s: unexpected image: %s", id, img)
		}
	}

	if _, err := ecsAPI.DescribeTaskDefinitionWithContext(ctx, &ecs.DescribeTaskDefinitionInput{TaskDefinition: aws.String("myapp:2")}); err == nil {
		t.Errorf("expected error for unknown revision")
	}

	ecsAPI.AddService("main", "web", 2,
		[]*ecs.Deployment{Deployment("myapp:1", "PRIMARY", 2, 0, 2)},
		[]*ecs.Deployment{Deployment("myapp:2", "PRIMARY", 2, 2, 0), Deployment("myapp:1", "ACTIVE", 2, 0, 2)},
	)

	want := []int{1, 2, 2}
	for i, n := range want {
		s, err := ecsAPI.DescribeServicesWithContext(ctx, &ecs.DescribeServicesInput{Cluster: aws.String("main"), Services: aws.StringSlice([]string{"web"})})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(s.Services[0].Deployments); got != n {
			t.Errorf("call %d: unexpected deployments: expected=%d, got=%d", i, n, got)
		}
	}

	missing, err := ecsAPI.DescribeServicesWithContext(ctx, &ecs.DescribeServicesInput{Cluster: aws.String("main"), Services: aws.StringSlice([]string{"nope"})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(missing.Services) != 0 || len(missing.Failures) != 1 {
		t.Errorf("unexpected result for missing service: %v", missing)
	}

	if n := ecsAPI.CallCount("DescribeServices"); n != 4 {
		t.Errorf("unexpected DescribeServices count: %d", n)
	}
}
