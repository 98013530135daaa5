package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validForm() TaskForm {
	return TaskForm{
		Title:       "Implement user authentication",
		Description: "JWT based login",
		Status:      "in-progress",
		Priority:    "high",
		AssigneeIDs: []string{"user-1"},
	}
}

func ptr[T any](v T) *T { return &v }

func TestValidateTaskForm_Valid(t *testing.T) {
	assert.Empty(t, ValidateTaskForm(validForm()))

	f := validForm()
	f.EstimatedHours = ptr(1000.0)
	f.Labels = strings.Split("a,b,c,d,e,f,g,h,i,j", ",")
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	f.StartDate, f.DueDate = &start, &start
	assert.Empty(t, ValidateTaskForm(f))
}

func TestValidateTaskForm_Rules(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	before := start.Add(-24 * time.Hour)

	tests := []struct {
		name   string
		mutate func(f *TaskForm)
		field  string
		want   string
	}{
		{"missing title", func(f *TaskForm) { f.Title = "" }, "title", "Title is required"},
		{"short title", func(f *TaskForm) { f.Title = "ab" }, "title", "Title must be at least 3 characters"},
		{"long title", func(f *TaskForm) { f.Title = strings.Repeat("x", 201) }, "title", "Title must not exceed 200 characters"},
		{"long description", func(f *TaskForm) { f.Description = strings.Repeat("x", 5001) }, "description", "Description must not exceed 5000 characters"},
		{"missing status", func(f *TaskForm) { f.Status = "" }, "status", "Status is required"},
		{"unknown status", func(f *TaskForm) { f.Status = "blocked" }, "status", "Invalid status"},
		{"status wrong case", func(f *TaskForm) { f.Status = "Done" }, "status", "Invalid status"},
		{"missing priority", func(f *TaskForm) { f.Priority = "" }, "priority", "Priority is required"},
		{"unknown priority", func(f *TaskForm) { f.Priority = "urgent" }, "priority", "Invalid priority"},
		{"nil assignees", func(f *TaskForm) { f.AssigneeIDs = nil }, "assigneeIds", "Assignees are required"},
		{"empty assignees", func(f *TaskForm) { f.AssigneeIDs = []string{} }, "assigneeIds", "At least one assignee is required"},
		{"too many labels", func(f *TaskForm) { f.Labels = make([]string, 11) }, "labels", "Maximum 10 labels allowed"},
		{"zero hours", func(f *TaskForm) { f.EstimatedHours = ptr(0.0) }, "estimatedHours", "Estimated hours must be positive"},
		{"negative hours", func(f *TaskForm) { f.EstimatedHours = ptr(-2.5) }, "estimatedHours", "Estimated hours must be positive"},
		{"too many hours", func(f *TaskForm) { f.EstimatedHours = ptr(1000.5) }, "estimatedHours", "Estimated hours must not exceed 1000"},
		{"due before start", func(f *TaskForm) { f.StartDate, f.DueDate = &start, &before }, "dueDate", "Due date must be on or after start date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			errs := ValidateTaskForm(f)
			assert.Len(t, errs, 1, "errors: %v", errs)
			assert.True(t, errs.Has(tt.field))
			assert.Equal(t, tt.want, errs[tt.field])
		})
	}
}

func TestValidateTaskForm_TitleCountsCharacters(t *testing.T) {
	f := validForm()
	f.Title = "çöş"
	assert.Empty(t, ValidateTaskForm(f))

	f.Title = strings.Repeat("ğ", 200)
	assert.Empty(t, ValidateTaskForm(f))
}

func TestValidateTaskForm_OnlyOneDateSet(t *testing.T) {
	due := time.Now()
	f := validForm()
	f.DueDate = &due
	assert.Empty(t, ValidateTaskForm(f))

	f.DueDate, f.StartDate = nil, &due
	assert.Empty(t, ValidateTaskForm(f))
}

func TestValidateTaskForm_ReportsEveryField(t *testing.T) {
	errs := ValidateTaskForm(TaskForm{Status: "nope", AssigneeIDs: []string{}})
	assert.Equal(t, Errors{
		"title":       "Title is required",
		"status":      "Invalid status",
		"priority":    "Priority is required",
		"assigneeIds": "At least one assignee is required",
	}, errs)
	assert.Contains(t, errs.Error(), "assigneeIds: At least one assignee is required")
}

func TestValidateContractTypeForm(t *testing.T) {
	assert.Empty(t, ValidateContractTypeForm(ContractTypeForm{ContractTypeCode: "FT", ContractTypeName: "Full time"}))

	errs := ValidateContractTypeForm(ContractTypeForm{ContractTypeName: strings.Repeat("n", 201)})
	assert.Equal(t, "Contract type code is required", errs["contractTypeCode"])
	assert.Equal(t, "Contract type name must not exceed 200 characters", errs["contractTypeName"])

	errs = ValidateContractTypeForm(ContractTypeForm{ContractTypeCode: strings.Repeat("c", 51), ContractTypeName: "x"})
	assert.Equal(t, Errors{"contractTypeCode": "Contract type code must not exceed 50 characters"}, errs)
}
