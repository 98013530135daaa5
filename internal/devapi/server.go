// Package devapi is a development implementation of the task REST backend
// the web front-end talks to.
package devapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskdesk/internal/middleware"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/repository"
	"github.com/gurkanbulca/taskdesk/internal/validation"
	"github.com/gurkanbulca/taskdesk/pkg/auth"
)

type Options struct {
	Tasks          *repository.TaskRepository
	ContractTypes  *repository.ContractTypeRepository
	StatusCatalogs *repository.StatusCatalogRepository
	Files          *FileStore
	TokenManager   *auth.TokenManager
	MaxUploadBytes int64
}

type Server struct {
	tasks         *repository.TaskRepository
	contractTypes *repository.ContractTypeRepository
	catalogs      *repository.StatusCatalogRepository
	files         *FileStore
	tokens        *auth.TokenManager
	validator     *validation.Validator
	maxUpload     int64
}

func NewServer(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Server{
		tasks:         opts.Tasks,
		contractTypes: opts.ContractTypes,
		catalogs:      opts.StatusCatalogs,
		files:         opts.Files,
		tokens:        opts.TokenManager,
		validator:     validation.New(),
		maxUpload:     opts.MaxUploadBytes,
	}
}

// Handler serves the API. Everything but health checks and attachment
// downloads requires a service token.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /v1/tasks", s.listTasks)
	api.HandleFunc("POST /v1/tasks", s.createTask)
	api.HandleFunc("GET /v1/tasks/{id}", s.getTask)
	api.HandleFunc("PUT /v1/tasks/{id}", s.updateTask)
	api.HandleFunc("DELETE /v1/tasks/{id}", s.deleteTask)
	api.HandleFunc("POST /v1/tasks/{id}/attachments", s.uploadAttachment)
	api.HandleFunc("DELETE /v1/tasks/{id}/attachments/{attachmentId}", s.deleteAttachment)
	api.HandleFunc("GET /v1/contract-types", s.listContractTypes)
	api.HandleFunc("POST /v1/contract-types", s.createContractType)
	api.HandleFunc("GET /v1/status-catalogs", s.listStatusCatalogs)

	validator := middleware.NewRequestValidator(&middleware.ValidationConfig{
		MaxJSONBytes:   1 << 20,
		MaxUploadBytes: s.maxUpload,
	})
	protected := middleware.NewAuthMiddleware(s.tokens).Handler(validator.Handler(api))

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.HandleFunc("GET /v1/tasks/{id}/attachments/{attachmentId}/content", s.attachmentContent)
	root.Handle("/", protected)

	return middleware.Chain(root, middleware.ExtractClientInfo, middleware.Logging)
}

// writeRepoError maps repository errors to API errors.
func writeRepoError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, repository.ErrDuplicateTitle):
		writeError(w, http.StatusConflict, "Title already exists")
	case errors.Is(err, repository.ErrDuplicateCode):
		writeError(w, http.StatusConflict, "Contract type code already exists")
	case errors.Is(err, repository.ErrUnknownUser):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] repository: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func taskForm(t models.Task) validation.TaskForm {
	return validation.TaskForm{
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		AssigneeIDs:    t.AssigneeIDs(),
		DueDate:        t.DueDate,
		StartDate:      t.StartDate,
		Labels:         t.Labels,
		EstimatedHours: t.EstimatedHours,
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ListFilter{
		ProjectID: q.Get("projectId"),
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	pageNumber, pageSize := 1, 0
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil && v > 0 {
		pageSize = v
		filter.Limit = v
		if p, err := strconv.Atoi(q.Get("pageNumber")); err == nil && p > 1 {
			pageNumber = p
			filter.Offset = (p - 1) * v
		}
	}

	tasks, total, err := s.tasks.List(r.Context(), filter)
	if err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}
	writePage(w, tasks, total, pageNumber, pageSize)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body models.CreateTaskRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	body.Title = strings.TrimSpace(body.Title)

	probe := models.Task{
		Title: body.Title, Description: body.Description, Status: body.Status, Priority: body.Priority,
		DueDate: body.DueDate, StartDate: body.StartDate, Labels: body.Labels, EstimatedHours: body.EstimatedHours,
	}
	form := taskForm(probe)
	form.AssigneeIDs = body.AssigneeIDs
	if errs := s.validator.ValidateTask(form); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, errs.Error())
		return
	}

	t, err := s.tasks.Create(r.Context(), &repository.TaskInput{CreateTaskRequest: body})
	if err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}
	writeData(w, http.StatusCreated, t)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}
	writeData(w, http.StatusOK, t)
}

// updateTask applies a partial update. The merged task must still pass the
// task rules.
func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body models.UpdateTaskRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	current, err := s.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}
	form := taskForm(*current)
	if body.Title != nil {
		trimmed := strings.TrimSpace(*body.Title)
		body.Title = &trimmed
		form.Title = trimmed
	}
	if body.Description != nil {
		form.Description = *body.Description
	}
	if body.Status != nil {
		form.Status = string(*body.Status)
	}
	if body.Priority != nil {
		form.Priority = string(*body.Priority)
	}
	if body.AssigneeIDs != nil {
		form.AssigneeIDs = body.AssigneeIDs
	}
	if body.DueDate != nil {
		form.DueDate = body.DueDate
	}
	if body.StartDate != nil {
		form.StartDate = body.StartDate
	}
	if body.Labels != nil {
		form.Labels = body.Labels
	}
	if body.EstimatedHours != nil {
		form.EstimatedHours = body.EstimatedHours
	}
	if errs := s.validator.ValidateTask(form); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, errs.Error())
		return
	}

	t, err := s.tasks.Update(r.Context(), id, body)
	if err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}
	writeData(w, http.StatusOK, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, err := s.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}
	var paths []string
	for _, a := range current.Attachments {
		if _, path, err := s.tasks.GetAttachment(r.Context(), id, a.ID); err == nil && path != "" {
			paths = append(paths, path)
		}
	}
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}
	for _, path := range paths {
		if err := s.files.Remove(path); err != nil {
			log.Printf("[ERROR] %v", err)
		}
	}
	writeData[any](w, http.StatusOK, nil)
}

func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()
	if header.Size > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	if _, err := s.tasks.GetByID(r.Context(), id); err != nil {
		writeRepoError(w, err, "Task not found")
		return
	}

	path, size, err := s.files.Save(id, header.Filename, file)
	if err != nil {
		log.Printf("[ERROR] store upload for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	attachmentID := uuid.NewString()
	a, err := s.tasks.AddAttachment(r.Context(), id, models.Attachment{
		ID:        attachmentID,
		Name:      header.Filename,
		Size:      size,
		Type:      contentType,
		URL:       contentURL(r, id, attachmentID),
		CreatedAt: time.Now().UTC(),
	}, path)
	if err != nil {
		s.files.Remove(path)
		writeRepoError(w, err, "Task not found")
		return
	}
	writeData(w, http.StatusOK, models.AttachmentUpload{URL: a.URL, Name: a.Name})
}

func contentURL(r *http.Request, taskID, attachmentID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/v1/tasks/%s/attachments/%s/content", scheme, r.Host, taskID, attachmentID)
}

func (s *Server) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	path, err := s.tasks.DeleteAttachment(r.Context(), r.PathValue("id"), r.PathValue("attachmentId"))
	if err != nil {
		writeRepoError(w, err, "Attachment not found")
		return
	}
	if err := s.files.Remove(path); err != nil {
		log.Printf("[ERROR] %v", err)
	}
	writeData[any](w, http.StatusOK, nil)
}

func (s *Server) attachmentContent(w http.ResponseWriter, r *http.Request) {
	a, path, err := s.tasks.GetAttachment(r.Context(), r.PathValue("id"), r.PathValue("attachmentId"))
	if err != nil {
		writeRepoError(w, err, "Attachment not found")
		return
	}
	if path == "" {
		http.Redirect(w, r, a.URL, http.StatusFound)
		return
	}
	f, err := s.files.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "Attachment not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", a.Type)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.Name))
	http.ServeContent(w, r, a.Name, a.CreatedAt, f)
}

func (s *Server) listContractTypes(w http.ResponseWriter, r *http.Request) {
	items, err := s.contractTypes.List(r.Context())
	if err != nil {
		writeRepoError(w, err, "Contract type not found")
		return
	}
	writePage(w, items, len(items), 1, 0)
}

func (s *Server) createContractType(w http.ResponseWriter, r *http.Request) {
	var body models.CreateContractTypeRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	body.ContractTypeCode = strings.TrimSpace(body.ContractTypeCode)
	body.ContractTypeName = strings.TrimSpace(body.ContractTypeName)
	if errs := s.validator.ValidateContractType(validation.ContractTypeForm{
		ContractTypeCode: body.ContractTypeCode,
		ContractTypeName: body.ContractTypeName,
	}); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, errs.Error())
		return
	}

	ct, err := s.contractTypes.Create(r.Context(), body)
	if err != nil {
		writeRepoError(w, err, "Contract type not found")
		return
	}
	writeData(w, http.StatusCreated, ct)
}

func (s *Server) listStatusCatalogs(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalogs.List(r.Context())
	if err != nil {
		writeRepoError(w, err, "Status catalog not found")
		return
	}
	writePage(w, items, len(items), 1, 0)
}
