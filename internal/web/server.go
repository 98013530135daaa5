// Package web serves the task administration pages.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gurkanbulca/taskdesk/internal/api/contracttype"
	"github.com/gurkanbulca/taskdesk/internal/middleware"
	"github.com/gurkanbulca/taskdesk/internal/tasksync"
	"github.com/gurkanbulca/taskdesk/internal/transport"
	"github.com/gurkanbulca/taskdesk/internal/validation"
	"github.com/gurkanbulca/taskdesk/pkg/notify"
)

const (
	defaultMaxUploadBytes = 10 << 20
	maxAttachments        = 10
)

// Options configures a Server.
type Options struct {
	Deps          tasksync.Deps
	ContractTypes contracttype.API
	Validator     *validation.Validator
	// MaxUploadBytes caps one attachment upload.
	MaxUploadBytes int64
	Now            func() time.Time
}

// Server renders the pages and forwards form submissions to tasksync.
type Server struct {
	deps          tasksync.Deps
	contractTypes contracttype.API
	validator     *validation.Validator
	maxUpload     int64
	now           func() time.Time

	render *renderer
	mux    *http.ServeMux
}

func NewServer(opts Options) (*Server, error) {
	if opts.Deps.Cache == nil || opts.Deps.Tasks == nil {
		return nil, errors.New("web: cache and task API are required")
	}
	if opts.Deps.Notifier == nil {
		opts.Deps.Notifier = notify.NewLogNotifier()
	}
	if opts.Validator == nil {
		opts.Validator = validation.New()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	rd, err := newRenderer(opts.Now)
	if err != nil {
		return nil, err
	}

	s := &Server{
		deps:          opts.Deps,
		contractTypes: opts.ContractTypes,
		validator:     opts.Validator,
		maxUpload:     opts.MaxUploadBytes,
		now:           opts.Now,
		render:        rd,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/tasks", http.StatusFound)
	})
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	s.mux.Handle("GET /static/", staticHandler())

	s.mux.HandleFunc("GET /tasks", s.handleTaskList)
	s.mux.HandleFunc("GET /tasks/new", s.handleNewTask)
	s.mux.HandleFunc("POST /tasks", s.handleCreateTask)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleTaskDetail)
	s.mux.HandleFunc("POST /tasks/{id}", s.handleUpdateTask)
	s.mux.HandleFunc("GET /tasks/{id}/delete", s.handleConfirmDelete)
	s.mux.HandleFunc("POST /tasks/{id}/delete", s.handleDeleteTask)
	s.mux.HandleFunc("POST /tasks/{id}/attachments", s.handleUploadAttachment)
	s.mux.HandleFunc("POST /tasks/{id}/attachments/{attachmentID}/delete", s.handleDeleteAttachment)

	if s.contractTypes != nil {
		s.mux.HandleFunc("GET /hrm/contract-types", s.handleContractTypes)
		s.mux.HandleFunc("POST /hrm/contract-types", s.handleCreateContractType)
	}
}

// Handler returns the page handler with request logging.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.mux, middleware.ExtractClientInfo, middleware.Logging)
}

// requestDeps scopes the notifier to one request so its notices can be
// flashed to the next page.
func (s *Server) requestDeps() (tasksync.Deps, *notify.Collector) {
	collector := &notify.Collector{}
	deps := s.deps
	deps.Notifier = notify.Multi(s.deps.Notifier, collector)
	return deps, collector
}

// openTask binds a task view to the request. The view ends with the request.
func (s *Server) openTask(ctx context.Context, taskID string) (*tasksync.TaskDetail, *notify.Collector) {
	deps, collector := s.requestDeps()
	return tasksync.NewTaskDetail(ctx, deps, taskID), collector
}

func (s *Server) page(w http.ResponseWriter, r *http.Request, status int, tmpl, title, section string, content any) {
	s.pageWithNotices(w, r, status, tmpl, title, section, content, nil)
}

// pageWithNotices renders like page and shows notices raised by this
// request after any pending flash.
func (s *Server) pageWithNotices(w http.ResponseWriter, r *http.Request, status int, tmpl, title, section string, content any, notices []notify.Notice) {
	flash := readFlash(w, r)
	for _, n := range notices {
		flash = append(flash, flashNotice{Level: n.Level, Message: n.Message})
	}
	s.render.render(w, status, tmpl, view{
		Title:   title,
		Section: section,
		Flash:   flash,
		Content: content,
	})
}

// redirectWithFlash moves the collected notices to the next page.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, notices []notify.Notice, to string) {
	writeFlash(w, r, notices)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

type errorContent struct {
	Status  int
	Message string
}

// renderReadError maps a failed read to an error page: the backend's 404
// is kept, anything else is a bad gateway.
func (s *Server) renderReadError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := http.StatusBadGateway
	if transport.StatusCode(err) == http.StatusNotFound {
		status = http.StatusNotFound
	}
	log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
	s.page(w, r, status, "error.html", "Error", "", errorContent{
		Status:  status,
		Message: transport.MessageOr(err, fallback),
	})
}
