package rollout

import (
	"fmt"
	"strings"
)

// ServiceNotFoundError is returned when DescribeServices matches no service.
type ServiceNotFoundError struct {
	Cluster  string
	Service  string
	Failures []string
}

func (e *ServiceNotFoundError) Error() string {
	msg := fmt.Sprintf("service %q not found in cluster %q", e.Service, clusterName(e.Cluster))
	if len(e.Failures) > 0 {
		msg += ": " + strings.Join(e.Failures, ", ")
	}
	return msg
}

// TimedOutError is returned when the deployments did not settle within the attempt budget.
type TimedOutError struct {
	Cluster  string
	Service  string
	Attempts int
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("update of service %q in cluster %q didn't succeed after %d attempts", e.Service, clusterName(e.Cluster), e.Attempts)
}

type CancelledError struct {
	Cluster  string
	Service  string
	Attempts int
	Err      error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("rollout of service %q in cluster %q cancelled after %d attempts: %v", e.Service, clusterName(e.Cluster), e.Attempts, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

func clusterName(c string) string {
	if c == "" {
		return "default"
	}
	return c
}
