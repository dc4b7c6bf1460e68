package batch

import "strings"

// Task is one unit of work: the action is invoked on Identity within
// GroupKey. Status is the status recorded when the task list was produced.
type Task struct {
	Identity string
	GroupKey string
	Name     string
	Status   string
}

// Source is an ordered, immutable task list. Key identifies the list across
// runs and names its checkpoint.
type Source struct {
	Key   string
	Tasks []Task
}

// IsReady reports whether a task in this status may be acted on.
func IsReady(status string) bool {
	return strings.Contains(status, "Operational") || strings.HasPrefix(status, "2_")
}

// SucceededTask is an entry of the success outcome list.
type SucceededTask struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	GroupKey string `json:"group_key"`
}

// SkippedTask is an entry of the skipped outcome list.
type SkippedTask struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	GroupKey string `json:"group_key"`
	Status   string `json:"status"`
}

// FailedTask is an entry of the failed outcome list.
type FailedTask struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Error    string `json:"error"`
}
