package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/twpayne/go-vfs"
	"k8s.io/klog/klogr"

	"github.com/variantdev/ecsdeploy/pkg/config"
	"github.com/variantdev/ecsdeploy/pkg/ecsclient"
	"github.com/variantdev/ecsdeploy/pkg/loginfra"
	"github.com/variantdev/ecsdeploy/pkg/macro"
	"github.com/variantdev/ecsdeploy/pkg/pipeline"
	"github.com/variantdev/ecsdeploy/pkg/rollout"
	"github.com/variantdev/ecsdeploy/pkg/taskdef"
	"github.com/variantdev/ecsdeploy/pkg/telemetry"
	"github.com/variantdev/ecsdeploy/pkg/workspace"
)

// Version is set at build time with -ldflags "-X github.com/variantdev/ecsdeploy/cmd.Version=..."
var Version = "dev"

func Execute() {
	log := klogr.New()

	cmd := New(log, vfs.HostOSFS, os.Stdout)

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	fs := loginfra.Init()

	// Hand parsing of remaining flags to pflags and cobra
	pflag.CommandLine.AddGoFlagSet(fs)

	if err := cmd.Execute(); err != nil {
		log.Error(err, err.Error())
		os.Exit(1)
	}
}

type options struct {
	file        string
	workspace   string
	vars        []string
	envFiles    []string
	region      string
	profile     string
	summaryFile string
	pushgateway string
}

type app struct {
	log logr.Logger
	fs  vfs.FS
	out io.Writer

	// newAPI and rolloutOpts are replaced in tests.
	newAPI      func(cfg ecsclient.Config, log logr.Logger) (ecsiface.ECSAPI, error)
	rolloutOpts []rollout.Option

	opts options
}

// New returns the root command.
func New(log logr.Logger, fs vfs.FS, out io.Writer) *cobra.Command {
	a := &app{
		log: log,
		fs:  fs,
		out: out,
		newAPI: func(cfg ecsclient.Config, log logr.Logger) (ecsiface.ECSAPI, error) {
			return ecsclient.New(cfg, ecsclient.Logger(log))
		},
	}
	return a.command()
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "ecsdeploy",
		Short: "Register ECS task definitions and roll services out to them",
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.file, "file", "f", config.DefaultFile, "deploy file, relative to the workspace")
	pf.StringVar(&a.opts.workspace, "workspace", os.Getenv("WORKSPACE"), "directory files are resolved against (default: $WORKSPACE or the current directory)")
	pf.StringArrayVar(&a.opts.vars, "var", nil, "variable as KEY=VALUE, may be repeated")
	pf.StringArrayVar(&a.opts.envFiles, "env-file", nil, "dotenv file to read variables from, may be repeated")
	pf.StringVar(&a.opts.region, "region", "", "AWS region, overriding the deploy file")
	pf.StringVar(&a.opts.profile, "profile", "", "AWS shared config profile, overriding the deploy file")

	deploy := &cobra.Command{
		Use:   "deploy",
		Short: "Run every step of the deploy file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return a.deploy(ctx)
		},
	}
	deploy.Flags().StringVar(&a.opts.summaryFile, "summary-file", "", "write a YAML summary of the run to this file")
	deploy.Flags().StringVar(&a.opts.pushgateway, "pushgateway", "", "push run metrics to this Prometheus Pushgateway URL")

	render := &cobra.Command{
		Use:   "render",
		Short: "Print the patched task definitions without registering them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return a.render(ctx)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, Version)
		},
	}

	root.AddCommand(deploy, render, version)

	return root
}

type prepared struct {
	spec  *config.DeploySpec
	steps []pipeline.Step
	ws    string
	vars  map[string]string
}

func (a *app) prepare() (*prepared, error) {
	dir := a.opts.workspace
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	spec, err := config.Load(workspace.New(dir, a.fs), a.opts.file)
	if err != nil {
		return nil, err
	}

	steps, err := pipeline.Build(spec)
	if err != nil {
		return nil, err
	}

	vars, err := a.variables(spec)
	if err != nil {
		return nil, err
	}

	return &prepared{spec: spec, steps: steps, ws: dir, vars: vars}, nil
}

// variables layers the environment, env files, the deploy file and --var, later ones winning.
func (a *app) variables(spec *config.DeploySpec) (map[string]string, error) {
	files, err := macro.ReadEnvFiles(a.opts.envFiles...)
	if err != nil {
		return nil, err
	}

	flags, err := macro.ParseAssignments(a.opts.vars)
	if err != nil {
		return nil, err
	}

	return macro.Merge(macro.FromEnviron(os.Environ()), files, spec.Vars, flags), nil
}

func (a *app) deploy(ctx context.Context) error {
	p, err := a.prepare()
	if err != nil {
		return err
	}

	api, err := a.newAPI(p.spec.ECS(a.opts.region, a.opts.profile), a.log)
	if err != nil {
		return err
	}

	var metrics *telemetry.Metrics
	if a.opts.pushgateway != "" {
		metrics = telemetry.NewMetrics()
	}

	opts := []pipeline.Option{
		pipeline.Logger(a.log),
		pipeline.API(api),
		pipeline.Workspace(p.ws, a.fs),
		pipeline.Out(a.out),
		pipeline.Vars(p.vars),
		pipeline.Metrics(metrics),
		pipeline.RolloutOptions(a.rolloutOpts...),
	}
	if a.opts.summaryFile != "" {
		opts = append(opts, pipeline.SummaryFile(a.opts.summaryFile))
	}

	pl, err := pipeline.New(p.steps, opts...)
	if err != nil {
		return err
	}

	_, err = pl.Run(ctx)

	if perr := metrics.Push(a.opts.pushgateway, telemetry.App); perr != nil {
		a.log.Error(perr, "pushing metrics", "pushgateway", a.opts.pushgateway)
	}

	return err
}

func (a *app) render(ctx context.Context) error {
	p, err := a.prepare()
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.Logger(a.log),
		pipeline.Workspace(p.ws, a.fs),
		pipeline.Out(a.out),
		pipeline.Vars(p.vars),
	}

	if needsAPI(p.steps) {
		api, err := a.newAPI(p.spec.ECS(a.opts.region, a.opts.profile), a.log)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.API(api))
	}

	pl, err := pipeline.New(p.steps, opts...)
	if err != nil {
		return err
	}

	return pl.Render(ctx)
}

// needsAPI reports whether rendering reads an existing revision.
func needsAPI(steps []pipeline.Step) bool {
	for _, s := range steps {
		r, ok := s.(*pipeline.RegisterTaskDefinitionStep)
		if !ok {
			continue
		}
		if _, ok := r.Source.(taskdef.FromExistingRevision); ok {
			return true
		}
	}
	return false
}

// signalContext is cancelled on SIGINT or SIGTERM so an in-flight rollout stops waiting.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
