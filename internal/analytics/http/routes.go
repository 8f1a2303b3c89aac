package analytichttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the dashboard and breakdown pages.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/", h.handleDashboard)
	r.Get("/breakdown", h.handleBreakdown)
}
