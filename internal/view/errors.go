package view

import (
	"log/slog"
	"net/http"
)

// ErrorPage is the payload of pages/error.html.
type ErrorPage struct {
	Status  int
	Message string
}

// RenderError writes an error page with the given status. A nil engine falls
// back to a plain-text response.
func (e *Engine) RenderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	if e == nil {
		http.Error(w, message, status)
		return
	}
	data := TemplateData{
		Title:       http.StatusText(status),
		CurrentPath: r.URL.Path,
		Nav:         Navigation,
		Data:        ErrorPage{Status: status, Message: message},
	}
	if err := e.RenderStatus(w, status, "pages/error.html", data); err != nil {
		if logger != nil {
			logger.Error("render error page", slog.Any("error", err))
		}
		http.Error(w, message, status)
	}
}
