// Package tasklist filters an already fetched task collection for the list
// page. Nothing here talks to the backend.
package tasklist

import (
	"strings"

	"github.com/gurkanbulca/taskdesk/internal/models"
)

// Criteria are the list page's filter controls. Empty fields match all.
type Criteria struct {
	Search   string
	Status   string
	Priority string
}

// Active reports whether any filter is set, which shows "Clear Filters".
func (c Criteria) Active() bool {
	return c.Search != "" || c.Status != "" || c.Priority != ""
}

// Filter returns the tasks matching c in their original order. The title
// match is a case-insensitive substring match; status and priority must
// match exactly.
func Filter(tasks []models.Task, c Criteria) []models.Task {
	search := strings.ToLower(c.Search)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if c.Status != "" && string(t.Status) != c.Status {
			continue
		}
		if c.Priority != "" && string(t.Priority) != c.Priority {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Option is one entry of a select control.
type Option struct {
	Value string
	Label string
}

// StatusOptions returns the status filter choices, "All Status" first.
func StatusOptions() []Option {
	opts := []Option{{Value: "", Label: "All Status"}}
	for _, s := range models.Statuses {
		opts = append(opts, Option{Value: string(s), Label: s.Label()})
	}
	return opts
}

// PriorityOptions returns the priority filter choices, "All Priority" first.
func PriorityOptions() []Option {
	opts := []Option{{Value: "", Label: "All Priority"}}
	for _, p := range models.Priorities {
		opts = append(opts, Option{Value: string(p), Label: p.Label()})
	}
	return opts
}
