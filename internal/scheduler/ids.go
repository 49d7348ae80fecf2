package scheduler

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDFunc produces an identifier for a newly generated task.
type IDFunc func(now time.Time) string

// NewTaskID returns ids of the form TASK-<unix millis>-<4 random upper-case chars>.
func NewTaskID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("TASK-%d-%s", now.UnixMilli(), suffix)
}

// SequentialIDs returns an IDFunc yielding prefix-1, prefix-2, ... regardless of time.
func SequentialIDs(prefix string) IDFunc {
	var n atomic.Int64
	return func(time.Time) string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
