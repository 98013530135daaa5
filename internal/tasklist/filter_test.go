package tasklist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gurkanbulca/taskdesk/internal/models"
)

func fixtures() []models.Task {
	return []models.Task{
		{ID: "TASK-001", Title: "Implement user authentication", Status: models.StatusInProgress, Priority: models.PriorityHigh},
		{ID: "TASK-002", Title: "Design dashboard layout", Status: models.StatusTodo, Priority: models.PriorityMedium},
		{ID: "TASK-003", Title: "Fix login redirect", Status: models.StatusDone, Priority: models.PriorityCritical},
		{ID: "TASK-004", Title: "Write API docs", Status: models.StatusTodo, Priority: models.PriorityLow},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter_EmptyCriteriaIsIdentity(t *testing.T) {
	tasks := fixtures()
	assert.Equal(t, tasks, Filter(tasks, Criteria{}))
}

func TestFilter_NoMatch(t *testing.T) {
	assert.Empty(t, Filter(fixtures(), Criteria{Search: "nonexistent-xyz"}))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"search is case insensitive", Criteria{Search: "LOGIN"}, []string{"TASK-003"}},
		{"search substring", Criteria{Search: "ent"}, []string{"TASK-001"}},
		{"status", Criteria{Status: "todo"}, []string{"TASK-002", "TASK-004"}},
		{"priority", Criteria{Priority: "critical"}, []string{"TASK-003"}},
		{"combined", Criteria{Search: "d", Status: "todo", Priority: "low"}, []string{"TASK-004"}},
		{"status is exact", Criteria{Status: "to"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(fixtures(), tt.criteria)))
		})
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	tasks := fixtures()
	_ = Filter(tasks, Criteria{Status: "done"})
	assert.Equal(t, fixtures(), tasks)
}

func TestCriteria_Active(t *testing.T) {
	assert.False(t, Criteria{}.Active())
	assert.True(t, Criteria{Search: "x"}.Active())
	assert.True(t, Criteria{Priority: "low"}.Active())
}

func TestOptions(t *testing.T) {
	status := StatusOptions()
	assert.Len(t, status, 7)
	assert.Equal(t, Option{Value: "", Label: "All Status"}, status[0])
	assert.Equal(t, Option{Value: "in-progress", Label: "In Progress"}, status[3])

	priority := PriorityOptions()
	assert.Len(t, priority, 5)
	assert.Equal(t, Option{Value: "critical", Label: "Critical"}, priority[1])
}
