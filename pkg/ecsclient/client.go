package ecsclient

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/aws/aws-sdk-go/service/ecs/ecsiface"
	"github.com/go-logr/logr"
	"k8s.io/klog/klogr"
)

type Config struct {
	Region          string `yaml:"region,omitempty"`
	Profile         string `yaml:"profile,omitempty"`
	AccessKeyID     string `yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty"`
	SessionToken    string `yaml:"sessionToken,omitempty"`
	RoleARN         string `yaml:"roleARN,omitempty"`
	RoleSessionName string `yaml:"roleSessionName,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
}

type Option interface {
	SetOption(c *client) error
}

type client struct {
	Logger      logr.Logger
	credentials CredentialsProvider
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(c *client) error {
	c.Logger = s.l
	return nil
}

func Credentials(p CredentialsProvider) Option {
	return &credentialsOption{p: p}
}

type credentialsOption struct {
	p CredentialsProvider
}

func (s *credentialsOption) SetOption(c *client) error {
	c.credentials = s.p
	return nil
}

// New builds an ECS API client. Credentials default to ProviderFromConfig(cfg).
func New(cfg Config, opts ...Option) (ecsiface.ECSAPI, error) {
	c := &client{}
	for _, o := range opts {
		if err := o.SetOption(c); err != nil {
			return nil, err
		}
	}

	if c.Logger == nil {
		c.Logger = klogr.New()
	}

	if c.credentials == nil {
		c.credentials = ProviderFromConfig(cfg)
	}

	awsCfg := aws.Config{}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsCfg,
		Profile:           cfg.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}

	creds, err := c.credentials.Credentials(sess)
	if err != nil {
		return nil, fmt.Errorf("resolving credentials: %w", err)
	}
	if creds != nil {
		sess = sess.Copy(&aws.Config{Credentials: creds})
	}

	if aws.StringValue(sess.Config.Region) == "" {
		return nil, fmt.Errorf("no region configured: set it in the deploy file, with --region or AWS_REGION")
	}

	svc := ecs.New(sess)

	logger := c.Logger
	svc.Handlers.Complete.PushBack(func(r *request.Request) {
		logger.V(2).Info("ecs.call", "operation", r.Operation.Name, "ok", r.Error == nil, "requestID", r.RequestID)
	})

	c.Logger.V(1).Info("ecs.client", "region", aws.StringValue(sess.Config.Region), "profile", cfg.Profile, "assumeRole", cfg.RoleARN != "")

	return svc, nil
}
