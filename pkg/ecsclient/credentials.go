package ecsclient

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
)

// CredentialsProvider resolves the credentials used for cluster API calls.
// A nil result keeps the session's default chain (environment, shared config, instance role).
type CredentialsProvider interface {
	Credentials(sess *session.Session) (*credentials.Credentials, error)
}

type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

func (c *StaticCredentials) Credentials(_ *session.Session) (*credentials.Credentials, error) {
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return nil, errors.New("static credentials require both an access key id and a secret access key")
	}
	return credentials.NewStaticCredentials(c.AccessKeyID, c.SecretAccessKey, c.SessionToken), nil
}

// DefaultCredentials defers to the session, which already honors the shared profile.
type DefaultCredentials struct{}

func (DefaultCredentials) Credentials(_ *session.Session) (*credentials.Credentials, error) {
	return nil, nil
}

// AssumeRole exchanges the Source credentials for a role session via STS.
type AssumeRole struct {
	RoleARN     string
	SessionName string
	ExternalID  string
	Source      CredentialsProvider
}

func (r *AssumeRole) Credentials(sess *session.Session) (*credentials.Credentials, error) {
	if r.RoleARN == "" {
		return nil, errors.New("assume role requires a role arn")
	}

	base := sess
	if r.Source != nil {
		creds, err := r.Source.Credentials(sess)
		if err != nil {
			return nil, err
		}
		if creds != nil {
			base = sess.Copy(&aws.Config{Credentials: creds})
		}
	}

	return stscreds.NewCredentials(base, r.RoleARN, func(p *stscreds.AssumeRoleProvider) {
		if r.SessionName != "" {
			p.RoleSessionName = r.SessionName
		}
		if r.ExternalID != "" {
			p.ExternalID = &r.ExternalID
		}
	}), nil
}

// ProviderFromConfig picks static keys when present, wrapping them in an assumed role when RoleARN is set.
func ProviderFromConfig(cfg Config) CredentialsProvider {
	var p CredentialsProvider = DefaultCredentials{}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		p = &StaticCredentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
		}
	}
	if cfg.RoleARN != "" {
		p = &AssumeRole{RoleARN: cfg.RoleARN, SessionName: cfg.RoleSessionName, Source: p}
	}
	return p
}
