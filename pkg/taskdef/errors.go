package taskdef

import "fmt"

type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// DecodeError is returned when a patched document cannot be read as a task definition.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot unmarshal task definition: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
