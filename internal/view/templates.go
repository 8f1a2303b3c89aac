package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/web"
)

// Tab names the top-level navigation entries.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabExplorer  Tab = "explorer"
	TabTopics    Tab = "topics"
	TabNone      Tab = ""
)

// NavItem is one entry of the primary navigation.
type NavItem struct {
	Tab   Tab
	Label string
	Icon  string
	Href  string
}

// Navigation lists the tabs in display order.
var Navigation = []NavItem{
	{Tab: TabDashboard, Label: "Dashboard", Icon: "📊", Href: "/"},
	{Tab: TabExplorer, Label: "Data Explorer", Icon: "🔍", Href: "/explorer"},
	{Tab: TabTopics, Label: "Audit Topics", Icon: "📑", Href: "/topics"},
}

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	ActiveTab   Tab
	Nav         []NavItem
	// Refresh asks the browser to reload after this many seconds; zero disables it.
	Refresh int
	Data    any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(Funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes the template into a buffer and writes it with status.
// Nothing reaches w when execution fails.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	if data.Nav == nil {
		data.Nav = Navigation
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Frame fills the page chrome from the request session: CSRF token, pending flash and path.
func Frame(r *http.Request, csrf *shared.CSRFManager, title string, tab Tab) TemplateData {
	sess := shared.SessionFromContext(r.Context())
	data := TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		ActiveTab:   tab,
		Nav:         Navigation,
	}
	if sess != nil {
		if csrf != nil {
			data.CSRFToken, _ = csrf.EnsureToken(r.Context(), sess)
		}
		data.Flash = sess.PopFlash()
	}
	return data
}
