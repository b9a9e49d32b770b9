// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public blog pages
// and the admin interface. Admin pages support full-page and HTMX partial
// rendering, detected via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"picoblog/internal/blog"
	"picoblog/internal/middleware"
)

//go:embed templates/public/*.html templates/admin/*.html
var templateFS embed.FS

// Public template names.
const (
	ShowArticles = "public/show-articles"
	Archive      = "public/archive"
	NotFound     = "public/not-found"
)

// Admin template names.
const (
	AdminMain   = "admin/main"
	AdminEdit   = "admin/edit"
	AdminDelete = "admin/delete"
)

// PageData holds all data passed to admin templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active navigation entry ("articles", "new")
	CSRFToken string         // CSRF token for forms
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"isoDate": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"monthName": func(t time.Time) string {
			return t.Format("January 2006")
		},
		"pathEscape": url.PathEscape,
	}
}

// New creates a Renderer by parsing every page template from the embedded
// filesystem. Each page is paired with the base layout of its directory.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, dir := range []string{"public", "admin"} {
		pages, err := fs.Glob(templateFS, "templates/"+dir+"/*.html")
		if err != nil {
			return nil, fmt.Errorf("glob %s templates: %w", dir, err)
		}

		base := "templates/" + dir + "/base.html"
		for _, page := range pages {
			if page == base {
				continue
			}
			tmpl, err := template.New("base.html").Funcs(Funcs()).ParseFS(templateFS, base, page)
			if err != nil {
				return nil, fmt.Errorf("parse template %s: %w", page, err)
			}
			name := dir + "/" + strings.TrimSuffix(path.Base(page), ".html")
			r.templates[name] = tmpl
		}
	}

	return r, nil
}

// Public renders a public page into a buffer so the caller can cache it
// before writing.
func (rn *Renderer) Public(name string, pc *blog.PageContext) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok || !strings.HasPrefix(name, "public/") {
		return nil, fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, "base.html", pc); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Page renders a full admin page or an HTMX partial with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders an admin page with the given status code. For HTMX
// requests only the "content" block is sent.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok || !strings.HasPrefix(name, "admin/") {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Inject CSRF token from context (set by CSRF middleware).
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Data == nil {
		data.Data = map[string]any{}
	}

	execName := "base.html"
	if isHTMX(r) {
		execName = "content"
	}

	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, execName, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
