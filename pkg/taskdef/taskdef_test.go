package taskdef

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/awsutil"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/twpayne/go-vfs/vfst"

	"github.com/variantdev/ecsdeploy/pkg/ecsclient"
	"github.com/variantdev/ecsdeploy/pkg/macro"
	"github.com/variantdev/ecsdeploy/pkg/taskdefpatch"
	"github.com/variantdev/ecsdeploy/pkg/workspace"
)

const fileTaskDef = `{
  "family": "myapp",
  "containerDefinitions": [
    {
      "name": "app",
      "image": "repo/app:latest",
      "memory": 256,
      "essential": true,
      "portMappings": [{"containerPort": 8080, "protocol": "tcp"}]
    }
  ],
  "volumes": []
}
`

func noExpand(s string) (string, error) {
	return s, nil
}

func TestParseSource(t *testing.T) {
	testcases := []struct {
		kind, value string
		want        Source
	}{
		{kind: "FILE", value: "taskdef.json", want: FromFile{Path: "taskdef.json"}},
		{kind: "file", value: "taskdef.json", want: FromFile{Path: "taskdef.json"}},
		{kind: "EXISTING_TASK_DEFINITION", value: "myapp:3", want: FromExistingRevision{ID: "myapp:3"}},
		{kind: "existing_revision", value: "myapp", want: FromExistingRevision{ID: "myapp"}},
		{kind: "S3", value: "s3://bucket/taskdef.json"},
		{kind: "", value: "taskdef.json"},
	}

	for i := range testcases {
		tc := testcases[i]

		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			got, err := ParseSource(tc.kind, tc.value)
			if tc.want == nil {
				var cerr *ConfigurationError
				if !errors.As(err, &cerr) {
					t.Fatalf("expected ConfigurationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("unexpected source: expected=%v, got=%v", tc.want, got)
			}
		})
	}
}

func TestExpandSource(t *testing.T) {
	e := macro.New(map[string]string{"ENV": "staging"})

	got, err := ExpandSource(FromFile{Path: "deploy/{ENV}/taskdef.json"}, e.Expand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (FromFile{Path: "deploy/staging/taskdef.json"}) {
		t.Errorf("unexpected source: %v", got)
	}

	if _, err := ExpandSource(FromExistingRevision{ID: "myapp-{MISSING}"}, e.Expand); err == nil {
		t.Errorf("expected expansion error")
	}
}

func TestResolve_File(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{"/ws/taskdef.json": fileTaskDef})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	r := &Resolver{Workspace: workspace.New("/ws", fs)}

	got, err := r.Resolve(context.Background(), FromFile{Path: "taskdef.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != fileTaskDef {
		t.Errorf("unexpected document: %s", got)
	}

	_, err = r.Resolve(context.Background(), FromFile{Path: "missing.json"})
	var werr *workspace.Error
	if !errors.As(err, &werr) {
		t.Errorf("unexpected error: %v", err)
	}

	_, err = (&Resolver{}).Resolve(context.Background(), FromFile{Path: "taskdef.json"})
	if !errors.Is(err, workspace.ErrNoWorkspace) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolve_UnknownSource(t *testing.T) {
	_, err := (&Resolver{}).Resolve(context.Background(), nil)

	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolve_ExistingRevisionTransportError(t *testing.T) {
	api := ecsclient.NewTester()
	api.DescribeTaskDefinitionFunc = func(*ecs.DescribeTaskDefinitionInput) (*ecs.DescribeTaskDefinitionOutput, error) {
		return nil, awserr.New("AccessDeniedException", "denied", nil)
	}

	_, err := (&Resolver{API: api}).Resolve(context.Background(), FromExistingRevision{ID: "myapp:1"})

	var terr *ecsclient.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("unexpected error: %v", err)
	}
	if terr.Code() != "AccessDeniedException" {
		t.Errorf("unexpected code: %s", terr.Code())
	}
}

func TestResolveAndRegister_Idempotent(t *testing.T) {
	api := ecsclient.NewTester()
	orig := api.AddTaskDefinition(&ecs.TaskDefinition{
		Family: aws.String("myapp"),
		ContainerDefinitions: []*ecs.ContainerDefinition{
			{
				Name:      aws.String("app"),
				Image:     aws.String("repo/app:41"),
				Memory:    aws.Int64(512),
				Essential: aws.Bool(true),
				Environment: []*ecs.KeyValuePair{
					{Name: aws.String("ENV"), Value: aws.String("staging")},
				},
				MountPoints: []*ecs.MountPoint{
					{SourceVolume: aws.String("data"), ContainerPath: aws.String("/data"), ReadOnly: aws.Bool(false)},
				},
			},
		},
		Volumes: []*ecs.Volume{
			{Name: aws.String("data"), Host: &ecs.HostVolumeProperties{SourcePath: aws.String("/var/data")}},
		},
	})

	ctx := context.Background()

	text, err := (&Resolver{API: api}).Resolve(ctx, FromExistingRevision{ID: "myapp:1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patched, err := taskdefpatch.Apply([]byte(text), nil, noExpand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rev, err := (&Registrar{API: api}).Register(ctx, "", string(patched), noExpand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rev.Family != "myapp" || rev.Number != 2 {
		t.Errorf("unexpected revision: %+v", rev)
	}

	in := api.Registered[0]
	if !awsutil.DeepEqual(orig.ContainerDefinitions, in.ContainerDefinitions) {
		t.Errorf("container definitions differ:\nexpected=%s\ngot=%s", awsutil.Prettify(orig.ContainerDefinitions), awsutil.Prettify(in.ContainerDefinitions))
	}
	if !awsutil.DeepEqual(orig.Volumes, in.Volumes) {
		t.Errorf("volumes differ:\nexpected=%s\ngot=%s", awsutil.Prettify(orig.Volumes), awsutil.Prettify(in.Volumes))
	}
}

func TestRegister_EndToEnd(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{"/ws/taskdef.json": fileTaskDef})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	api := ecsclient.NewTester()
	expander := macro.New(map[string]string{"ENV": "staging", "BUILD_NUMBER": "42"})
	ctx := context.Background()

	text, err := (&Resolver{API: api, Workspace: workspace.New("/ws", fs)}).Resolve(ctx, FromFile{Path: "taskdef.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patched, err := taskdefpatch.Apply([]byte(text), []taskdefpatch.Edit{
		{Path: "$.containerDefinitions[0].image", Value: "repo/app:{BUILD_NUMBER}"},
	}, expander.Expand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rev, err := (&Registrar{API: api}).Register(ctx, "myapp-{ENV}", string(patched), expander.Expand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rev.ARN != "arn:aws:ecs:us-east-1:123456789012:task-definition/myapp-staging:1" {
		t.Errorf("unexpected arn: %s", rev.ARN)
	}

	in := api.Registered[0]
	if f := aws.StringValue(in.Family); f != "myapp-staging" {
		t.Errorf("unexpected family: %s", f)
	}
	if img := aws.StringValue(in.ContainerDefinitions[0].Image); img != "repo/app:42" {
		t.Errorf("unexpected image: %s", img)
	}
	if p := aws.Int64Value(in.ContainerDefinitions[0].PortMappings[0].ContainerPort); p != 8080 {
		t.Errorf("unexpected container port: %d", p)
	}
}

func TestRegister_Failures(t *testing.T) {
	testcases := []struct {
		family   string
		document string
		check    func(error) bool
	}{
		{
			family:   "myapp",
			document: `{"containerDefinitions": "not-a-list"}`,
			check:    func(err error) bool { var e *DecodeError; return errors.As(err, &e) },
		},
		{
			family:   "myapp",
			document: `not json`,
			check:    func(err error) bool { var e *DecodeError; return errors.As(err, &e) },
		},
		{
			family:   "myapp",
			document: `{"family": "myapp"}`,
			check:    func(err error) bool { var e *DecodeError; return errors.As(err, &e) },
		},
		{
			family:   "myapp-{ENV}",
			document: fileTaskDef,
			check:    func(err error) bool { var e *macro.Error; return errors.As(err, &e) },
		},
		{
			family:   "",
			document: `{"containerDefinitions": [{"name": "app", "image": "a"}]}`,
			check:    func(err error) bool { var e *ConfigurationError; return errors.As(err, &e) },
		},
	}

	for i := range testcases {
		tc := testcases[i]

		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			api := ecsclient.NewTester()
			expander := macro.New(nil)

			_, err := (&Registrar{API: api}).Register(context.Background(), tc.family, tc.document, expander.Expand)
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}

			if n := api.CallCount("RegisterTaskDefinition"); n != 0 {
				t.Errorf("expected no register call, got %d", n)
			}
		})
	}
}

func TestRegister_TransportError(t *testing.T) {
	api := ecsclient.NewTester()
	api.RegisterTaskDefinitionFunc = func(*ecs.RegisterTaskDefinitionInput) (*ecs.RegisterTaskDefinitionOutput, error) {
		return nil, awserr.New(ecs.ErrCodeServerException, "internal", nil)
	}

	_, err := (&Registrar{API: api}).Register(context.Background(), "myapp", fileTaskDef, noExpand)

	var terr *ecsclient.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("unexpected error: %v", err)
	}
	if terr.Op != "RegisterTaskDefinition" {
		t.Errorf("unexpected op: %s", terr.Op)
	}
}
