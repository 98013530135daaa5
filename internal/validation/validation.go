// Package validation checks form input before it is submitted to the
// backend. Checks are synchronous and never touch the network.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskForm is the task editor's input as submitted.
type TaskForm struct {
	Title          string     `json:"title" validate:"required,min=3,max=200"`
	Description    string     `json:"description" validate:"max=5000"`
	Status         string     `json:"status" validate:"required,oneof=backlog todo in-progress review done archived"`
	Priority       string     `json:"priority" validate:"required,oneof=critical high medium low"`
	AssigneeIDs    []string   `json:"assigneeIds" validate:"required,min=1"`
	DueDate        *time.Time `json:"dueDate"`
	StartDate      *time.Time `json:"startDate"`
	Labels         []string   `json:"labels" validate:"max=10"`
	EstimatedHours *float64   `json:"estimatedHours" validate:"omitnil,gt=0,lte=1000"`
}

// ContractTypeForm is the HRM contract-type form.
type ContractTypeForm struct {
	ContractTypeCode string `json:"contractTypeCode" validate:"required,max=50"`
	ContractTypeName string `json:"contractTypeName" validate:"required,max=200"`
}

// Errors maps a form field's JSON name to the message of the first rule it
// violates.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field has a violation.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

const tagDateOrder = "dateorder"

var messages = map[string]string{
	"title.required":          "Title is required",
	"title.min":               "Title must be at least 3 characters",
	"title.max":               "Title must not exceed 200 characters",
	"description.max":         "Description must not exceed 5000 characters",
	"status.required":         "Status is required",
	"status.oneof":            "Invalid status",
	"priority.required":       "Priority is required",
	"priority.oneof":          "Invalid priority",
	"assigneeIds.required":    "Assignees are required",
	"assigneeIds.min":         "At least one assignee is required",
	"labels.max":              "Maximum 10 labels allowed",
	"estimatedHours.gt":       "Estimated hours must be positive",
	"estimatedHours.lte":      "Estimated hours must not exceed 1000",
	"dueDate." + tagDateOrder: "Due date must be on or after start date",

	"contractTypeCode.required": "Contract type code is required",
	"contractTypeCode.max":      "Contract type code must not exceed 50 characters",
	"contractTypeName.required": "Contract type name is required",
	"contractTypeName.max":      "Contract type name must not exceed 200 characters",
}

// Validator evaluates the form schemas.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator. It is safe for concurrent use.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(taskDateOrder, TaskForm{})
	return &Validator{v: v}
}

// taskDateOrder rejects a due date earlier than the start date.
func taskDateOrder(sl validator.StructLevel) {
	form := sl.Current().Interface().(TaskForm)
	if form.DueDate == nil || form.StartDate == nil {
		return
	}
	if form.DueDate.Before(*form.StartDate) {
		sl.ReportError(form.DueDate, "dueDate", "DueDate", tagDateOrder, "")
	}
}

// ValidateTask checks a task form. It returns nil when the form is valid.
func (v *Validator) ValidateTask(form TaskForm) Errors {
	return v.check(form)
}

// ValidateContractType checks a contract-type form.
func (v *Validator) ValidateContractType(form ContractTypeForm) Errors {
	return v.check(form)
}

func (v *Validator) check(form any) Errors {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"": err.Error()}
	}

	out := Errors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag(), fe.Param())
	}
	return out
}

func message(field, tag, param string) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	if param != "" {
		return fmt.Sprintf("%s failed %s=%s", field, tag, param)
	}
	return fmt.Sprintf("%s failed %s", field, tag)
}

var defaultValidator = New()

// ValidateTaskForm checks form with the shared validator.
func ValidateTaskForm(form TaskForm) Errors {
	return defaultValidator.ValidateTask(form)
}

// ValidateContractTypeForm checks form with the shared validator.
func ValidateContractTypeForm(form ContractTypeForm) Errors {
	return defaultValidator.ValidateContractType(form)
}
