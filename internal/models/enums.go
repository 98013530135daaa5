// internal/models/enums.go
package models

import (
	"fmt"
)

// Statuses lists every task status in workflow order.
var Statuses = []Status{
	StatusBacklog,
	StatusTodo,
	StatusInProgress,
	StatusReview,
	StatusDone,
	StatusArchived,
}

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{
	PriorityCritical,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
}

// ParseStatus converts a string status to a Status
func ParseStatus(status string) (Status, error) {
	switch Status(status) {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusArchived:
		return Status(status), nil
	default:
		return "", fmt.Errorf("unknown status: %s", status)
	}
}

// ParsePriority converts a string priority to a Priority
func ParsePriority(priority string) (Priority, error) {
	switch Priority(priority) {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(priority), nil
	default:
		return "", fmt.Errorf("unknown priority: %s", priority)
	}
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	_, err := ParsePriority(string(p))
	return err == nil
}

// Label returns the display label of a status.
func (s Status) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusDone:
		return "Done"
	case StatusArchived:
		return "Archived"
	default:
		return string(s)
	}
}

// Label returns the display label of a priority.
func (p Priority) Label() string {
	switch p {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return string(p)
	}
}
