// Package view renders the HTML pages.
//
// Every page template defines a "content" block that the shared layout in
// base.html pulls in, so each page is parsed together with the layout into
// its own template set at startup. Rendering goes through a buffer: a
// template error produces a clean 500 instead of half a page.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/reqimple/reqimple/internal/model"
)

//go:embed templates/*.html
var files embed.FS

// Page names. Each maps to templates/<name>.html.
const (
	Index                = "index"
	IdeaDetail           = "idea_detail"
	Register             = "register"
	Login                = "login"
	CreateIdea           = "create_idea"
	EditIdea             = "edit_idea"
	CreateImplementation = "create_implementation"
	ImplementationDetail = "implementation_detail"
	AdminModeration      = "admin_moderation"
	Profile              = "profile"
	EditProfile          = "edit_profile"
	NotFound             = "not_found"
	Error                = "error"
)

var pageNames = []string{
	Index, IdeaDetail, Register, Login, CreateIdea, EditIdea,
	CreateImplementation, ImplementationDetail, AdminModeration,
	Profile, EditProfile, NotFound, Error,
}

// Flash kinds, used as CSS class suffixes.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashInfo    = "info"
)

// Flash is a one-shot notice shown at the top of the next page.
type Flash struct {
	Kind    string
	Message string
}

// Page is the data every template receives. Form holds the submitted input
// when a form is re-rendered, Errors the per-field messages keyed by form
// field name. Data is page specific.
type Page struct {
	Title     string
	Principal model.Principal
	Flash     *Flash
	Form      any
	Errors    map[string]string
	Data      any
}

// Renderer writes pages. The handler package depends on this interface so
// tests can substitute a recorder.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page Page)
}

// Templates is the html/template implementation of Renderer.
type Templates struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("02 Jan 2006") },
	"typeLabel": func(t model.ImplementationType) string {
		switch t {
		case model.TypeGitHubRepo:
			return "GitHub repository"
		case model.TypeLiveDemo:
			return "Live demo"
		case model.TypeArticle:
			return "Article"
		case model.TypePrototype:
			return "Prototype"
		}
		return "Other"
	},
	"typeChoices": func() []model.ImplementationType {
		return []model.ImplementationType{
			model.TypeGitHubRepo, model.TypeLiveDemo, model.TypeArticle, model.TypePrototype, model.TypeOther,
		}
	},
	"statusChoices": func() map[string]string {
		return map[string]string{
			string(model.IdeaDraft):    "Draft",
			string(model.IdeaActive):   "Active",
			string(model.IdeaArchived): "Archived",
		}
	},
}

// New parses every page with the layout.
func New(logger *slog.Logger) (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(pageNames)), logger: logger}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("view: parsing %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes the named page inside the layout and writes it with
// status.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := t.pages[name]
	if !ok {
		t.logger.Error("unknown template", slog.String("name", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", page); err != nil {
		t.logger.Error("failed to render template",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		t.logger.Debug("writing page", slog.String("error", err.Error()))
	}
}
