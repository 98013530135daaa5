package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gurkanbulca/taskdesk/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var pages = []string{
	"task_list.html",
	"task_form.html",
	"task_delete.html",
	"contract_types.html",
	"error.html",
}

// view is what every page template receives.
type view struct {
	Title   string
	Section string
	Flash   []flashNotice
	Content any
}

type renderer struct {
	pages map[string]*template.Template
	now   func() time.Time
}

func newRenderer(now func() time.Time) (*renderer, error) {
	funcs := template.FuncMap{
		"statusLabel":   func(s models.Status) string { return s.Label() },
		"priorityLabel": func(p models.Priority) string { return p.Label() },
		"bytes":         func(n int64) string { return humanize.Bytes(uint64(max(n, 0))) },
		"ago":           func(t time.Time) string { return humanize.RelTime(t, now(), "ago", "from now") },
		"date": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("Jan 2, 2006")
		},
		"hours": func(h *float64) string {
			if h == nil {
				return "-"
			}
			return humanize.Ftoa(*h) + "h"
		},
		"overdue":       func(t models.Task) bool { return t.IsOverdue(now()) },
		"countComments": models.CountComments,
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pages)), now: now}
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// render writes page with the given status. The page is buffered so a
// template failure still produces a clean 500.
func (rd *renderer) render(w http.ResponseWriter, status int, page string, v view) {
	t, ok := rd.pages[page]
	if !ok {
		log.Printf("[ERROR] unknown template %s", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		log.Printf("[ERROR] render %s: %v", page, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
