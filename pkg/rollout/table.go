package rollout

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ecs"
)

const (
	taskDefinitionIDLimit = 45
	tableFormat           = "%45s | %8s | %7s | %7s | %7s | %30s\n"
)

var tableLine = strings.Repeat("-", 120)

func writeTable(w io.Writer, deployments []*ecs.Deployment) {
	fmt.Fprintf(w, tableFormat, "Task definition ID", "Status", "Desired", "Pending", "Running", "Created at")
	fmt.Fprintln(w, tableLine)
	for _, d := range deployments {
		fmt.Fprintf(w, tableFormat,
			right(aws.StringValue(d.TaskDefinition), taskDefinitionIDLimit),
			aws.StringValue(d.Status),
			strconv.FormatInt(aws.Int64Value(d.DesiredCount), 10),
			strconv.FormatInt(aws.Int64Value(d.PendingCount), 10),
			strconv.FormatInt(aws.Int64Value(d.RunningCount), 10),
			createdAt(d.CreatedAt),
		)
	}
	fmt.Fprintln(w, tableLine)
	fmt.Fprintln(w)
}

// right returns the last n characters of s.
func right(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func createdAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
