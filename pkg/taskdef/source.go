package taskdef

import (
	"fmt"
	"strings"
)

// Source says where the base task definition comes from. Implementations are FromFile and FromExistingRevision.
type Source interface {
	isSource()
	String() string
}

// FromFile reads the document from a workspace file.
type FromFile struct {
	Path string
}

// FromExistingRevision re-serializes a registered revision, identified by family, family:revision or ARN.
type FromExistingRevision struct {
	ID string
}

func (FromFile) isSource()             {}
func (FromExistingRevision) isSource() {}

func (s FromFile) String() string {
	return "file " + s.Path
}

func (s FromExistingRevision) String() string {
	return "existing revision " + s.ID
}

const (
	KindFile                   = "FILE"
	KindExistingTaskDefinition = "EXISTING_TASK_DEFINITION"
	KindExistingRevision       = "EXISTING_REVISION"
)

// ParseSource decodes a tagged source as it appears in job settings.
func ParseSource(kind, value string) (Source, error) {
	switch strings.ToUpper(strings.TrimSpace(kind)) {
	case KindFile:
		return FromFile{Path: value}, nil
	case KindExistingTaskDefinition, KindExistingRevision:
		return FromExistingRevision{ID: value}, nil
	}
	return nil, &ConfigurationError{Msg: fmt.Sprintf("unknown task-definition source %q", kind)}
}

// ExpandSource expands the path or id of s.
func ExpandSource(s Source, expand func(string) (string, error)) (Source, error) {
	switch src := s.(type) {
	case FromFile:
		p, err := expand(src.Path)
		if err != nil {
			return nil, err
		}
		return FromFile{Path: p}, nil
	case FromExistingRevision:
		id, err := expand(src.ID)
		if err != nil {
			return nil, err
		}
		return FromExistingRevision{ID: id}, nil
	}
	return nil, unknownSource(s)
}

func unknownSource(s Source) error {
	return &ConfigurationError{Msg: fmt.Sprintf("unknown task-definition source %T", s)}
}
