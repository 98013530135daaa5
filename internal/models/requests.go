package models

import "time"

// CreateTaskRequest is the body of POST /v1/tasks.
type CreateTaskRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	AssigneeIDs    []string   `json:"assigneeIds"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	Labels         []string   `json:"labels,omitempty"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
}

// UpdateTaskRequest is the body of PUT /v1/tasks/{id}. Every field is
// optional; absent fields are omitted from the payload.
type UpdateTaskRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	Priority       *Priority  `json:"priority,omitempty"`
	AssigneeIDs    []string   `json:"assigneeIds,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	Labels         []string   `json:"labels,omitempty"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
}

// AttachmentUpload is the payload returned after a file upload.
type AttachmentUpload struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ContractType is an HRM employment contract category.
type ContractType struct {
	ID               string `json:"id"`
	ContractTypeCode string `json:"contractTypeCode"`
	ContractTypeName string `json:"contractTypeName"`
}

type CreateContractTypeRequest struct {
	ContractTypeCode string `json:"contractTypeCode"`
	ContractTypeName string `json:"contractTypeName"`
}

// StatusCatalog is one entry of the backend's status catalog.
type StatusCatalog struct {
	ID         int    `json:"id"`
	StatusName string `json:"statusName"`
}
