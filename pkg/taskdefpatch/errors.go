package taskdefpatch

import (
	"errors"
	"fmt"
)

var errUnexpectedShape = errors.New("replacement changed the document shape")

// PathNotFoundError is returned when an edit targets a node that does not exist.
type PathNotFoundError struct {
	Path string
	Err  error
}

func (e *PathNotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("path not found: %s", e.Path)
	}
	return fmt.Sprintf("path not found: %s: %v", e.Path, e.Err)
}

func (e *PathNotFoundError) Unwrap() error {
	return e.Err
}

type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}
