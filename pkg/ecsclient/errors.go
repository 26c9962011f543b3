package ecsclient

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/awserr"
)

// TransportError wraps any failure of a cluster API call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ecs %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Code returns the AWS error code, if the cause carries one.
func (e *TransportError) Code() string {
	var aerr awserr.Error
	if errors.As(e.Err, &aerr) {
		return aerr.Code()
	}
	return ""
}

func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}
