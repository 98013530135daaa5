package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/tasklist"
	"github.com/gurkanbulca/taskdesk/internal/tasksync"
	"github.com/gurkanbulca/taskdesk/internal/transport"
	"github.com/gurkanbulca/taskdesk/pkg/notify"
)

// acceptedTypes are the attachment types the upload control offers.
var acceptedTypes = []string{"image/*", "application/pdf", ".doc", ".docx"}

type taskListContent struct {
	Tasks            []models.Task
	Total            int
	Criteria         tasklist.Criteria
	StatusOptions    []tasklist.Option
	PriorityOptions  []tasklist.Option
	FiltersAreActive bool
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := tasklist.Criteria{
		Search:   strings.TrimSpace(q.Get("search")),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}

	tasks, err := tasksync.NewTaskList(s.deps).List(r.Context(), task.ListFilter{})
	if err != nil {
		s.renderReadError(w, r, err, "Failed to load tasks")
		return
	}

	s.page(w, r, http.StatusOK, "task_list.html", "Tasks", "tasks", taskListContent{
		Tasks:            tasklist.Filter(tasks, criteria),
		Total:            len(tasks),
		Criteria:         criteria,
		StatusOptions:    tasklist.StatusOptions(),
		PriorityOptions:  tasklist.PriorityOptions(),
		FiltersAreActive: criteria.Active(),
	})
}

type taskFormContent struct {
	// Task is nil on the create page.
	Task      *models.Task
	Rows      map[string]Row
	Action    string
	Tab       string
	MaxUpload string
	Accept    string
}

func (s *Server) taskFormContent(ctx context.Context, t *models.Task, form *taskForm, tab string) taskFormContent {
	c := taskFormContent{
		Task:      t,
		Rows:      form.rows(s.knownUsers(ctx, t)),
		Action:    "/tasks",
		Tab:       tab,
		MaxUpload: humanize.IBytes(uint64(s.maxUpload)),
		Accept:    strings.Join(acceptedTypes, ","),
	}
	if t != nil {
		c.Action = taskPath(t.ID)
	}
	switch c.Tab {
	case "overview", "subtasks", "comments":
	default:
		c.Tab = "overview"
	}
	return c
}

// knownUsers collects the people the assignee picker offers: everyone seen
// on the cached task list plus the current task's assignees.
func (s *Server) knownUsers(ctx context.Context, current *models.Task) []models.User {
	seen := map[string]models.User{}
	add := func(u models.User) {
		if u.ID != "" {
			if _, ok := seen[u.ID]; !ok {
				seen[u.ID] = u
			}
		}
	}

	tasks, err := tasksync.NewTaskList(s.deps).List(ctx, task.ListFilter{})
	if err != nil {
		log.Printf("[ERROR] load assignee choices: %v", err)
	}
	for _, t := range tasks {
		for _, u := range t.Assignees {
			add(u)
		}
		if t.Reporter != nil {
			add(*t.Reporter)
		}
	}
	if current != nil {
		for _, u := range current.Assignees {
			add(u)
		}
	}

	users := make([]models.User, 0, len(seen))
	for _, u := range seen {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *Server) handleNewTask(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "task_form.html", "New Task", "tasks",
		s.taskFormContent(r.Context(), nil, newTaskForm(), ""))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := parseTaskForm(r.PostForm)
	if !form.validate(s.validator) {
		s.page(w, r, http.StatusUnprocessableEntity, "task_form.html", "New Task", "tasks",
			s.taskFormContent(r.Context(), nil, form, ""))
		return
	}

	detail, notices := s.openTask(r.Context(), "")
	defer detail.Close()

	if _, err := detail.CreateTask(r.Context(), form.createRequest()); err != nil {
		log.Printf("[ERROR] create task: %v", err)
		status := http.StatusBadGateway
		if code := transport.StatusCode(err); code >= 400 && code < 500 {
			status = code
		}
		s.pageWithNotices(w, r, status, "task_form.html", "New Task", "tasks",
			s.taskFormContent(r.Context(), nil, form, ""), notices.Notices())
		return
	}
	redirectWithFlash(w, r, notices.Notices(), "/tasks")
}

func (s *Server) handleTaskDetail(w http.ResponseWriter, r *http.Request) {
	detail, _ := s.openTask(r.Context(), r.PathValue("id"))
	defer detail.Close()

	state := detail.Load(r.Context())
	if state.Err != nil {
		s.renderReadError(w, r, state.Err, "Failed to load task")
		return
	}

	s.page(w, r, http.StatusOK, "task_form.html", state.Task.Title, "tasks",
		s.taskFormContent(r.Context(), state.Task, taskFormFromTask(state.Task), r.URL.Query().Get("tab")))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	detail, notices := s.openTask(r.Context(), id)
	defer detail.Close()

	form := parseTaskForm(r.PostForm)
	if !form.validate(s.validator) {
		state := detail.Load(r.Context())
		if state.Err != nil {
			s.renderReadError(w, r, state.Err, "Failed to load task")
			return
		}
		s.page(w, r, http.StatusUnprocessableEntity, "task_form.html", state.Task.Title, "tasks",
			s.taskFormContent(r.Context(), state.Task, form, "overview"))
		return
	}

	if _, err := detail.UpdateTask(r.Context(), id, form.updateRequest()); err != nil {
		log.Printf("[ERROR] update task %s: %v", id, err)
		redirectWithFlash(w, r, notices.Notices(), taskPath(id))
		return
	}
	redirectWithFlash(w, r, notices.Notices(), "/tasks")
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	detail, _ := s.openTask(r.Context(), r.PathValue("id"))
	defer detail.Close()

	state := detail.Load(r.Context())
	if state.Err != nil {
		s.renderReadError(w, r, state.Err, "Failed to load task")
		return
	}
	s.page(w, r, http.StatusOK, "task_delete.html", "Delete "+state.Task.Title, "tasks", state.Task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	detail, notices := s.openTask(r.Context(), id)
	defer detail.Close()

	if err := detail.DeleteTask(r.Context(), id); err != nil {
		log.Printf("[ERROR] delete task %s: %v", id, err)
		redirectWithFlash(w, r, notices.Notices(), taskPath(id))
		return
	}
	redirectWithFlash(w, r, notices.Notices(), "/tasks")
}

func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := taskPath(id) + "?tab=overview"
	reject := func(msg string) {
		redirectWithFlash(w, r, []notify.Notice{{Level: notify.LevelError, Message: msg, At: s.now()}}, back)
	}

	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		reject(fmt.Sprintf("File must not exceed %s", humanize.IBytes(uint64(s.maxUpload))))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		reject("Please choose a file to upload")
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		reject(fmt.Sprintf("File must not exceed %s", humanize.IBytes(uint64(s.maxUpload))))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !acceptedFile(header.Filename, contentType) {
		reject("File type not supported")
		return
	}

	detail, notices := s.openTask(r.Context(), id)
	defer detail.Close()

	if state := detail.Load(r.Context()); state.Task != nil && len(state.Task.Attachments) >= maxAttachments {
		reject(fmt.Sprintf("Maximum %d files allowed", maxAttachments))
		return
	}

	if _, err := detail.UploadAttachment(r.Context(), id, task.File{
		Name:        header.Filename,
		ContentType: contentType,
		Content:     file,
	}); err != nil {
		log.Printf("[ERROR] upload attachment to %s: %v", id, err)
	}
	redirectWithFlash(w, r, notices.Notices(), back)
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	detail, notices := s.openTask(r.Context(), id)
	defer detail.Close()

	if err := detail.DeleteAttachment(r.Context(), id, r.PathValue("attachmentID")); err != nil {
		log.Printf("[ERROR] delete attachment of %s: %v", id, err)
	}
	redirectWithFlash(w, r, notices.Notices(), taskPath(id)+"?tab=overview")
}

// acceptedFile matches name and contentType against acceptedTypes.
func acceptedFile(name, contentType string) bool {
	ext := strings.ToLower(path.Ext(name))
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, a := range acceptedTypes {
		switch {
		case strings.HasPrefix(a, "."):
			if ext == a {
				return true
			}
		case strings.HasSuffix(a, "/*"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(a, "*")) {
				return true
			}
		default:
			if contentType == a {
				return true
			}
		}
	}
	return false
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}
