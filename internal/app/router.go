package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/openaudit/openaudit-visualizer/internal/analyses"
	analytichttp "github.com/openaudit/openaudit-visualizer/internal/analytics/http"
	"github.com/openaudit/openaudit-visualizer/internal/explorer"
	"github.com/openaudit/openaudit-visualizer/internal/lgus"
	"github.com/openaudit/openaudit-visualizer/internal/observability"
	"github.com/openaudit/openaudit-visualizer/internal/platform/httpx"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/topics"
	"github.com/openaudit/openaudit-visualizer/internal/view"
	"github.com/openaudit/openaudit-visualizer/jobs"
	"github.com/openaudit/openaudit-visualizer/web"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AnalyticsHandler *analytichttp.Handler
	ExplorerHandler  *explorer.Handler
	TopicsHandler    *topics.Handler
	LGUsHandler      *lgus.Handler
	AnalysesHandler  *analyses.Handler
	JobHandler       *jobs.Handler

	// Readiness lists named dependencies that must answer for /readyz.
	Readiness map[string]Pinger
}

// NewRouter constructs the chi.Router with the visualizer defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Readiness, params.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		params.Templates.RenderError(w, r, params.Logger, http.StatusNotFound, "Page not found")
	})

	if params.AnalyticsHandler != nil {
		params.AnalyticsHandler.MountRoutes(r)
	}
	if params.ExplorerHandler != nil {
		params.ExplorerHandler.MountRoutes(r)
	}
	if params.TopicsHandler != nil {
		params.TopicsHandler.MountRoutes(r)
	}
	if params.LGUsHandler != nil {
		params.LGUsHandler.MountRoutes(r)
	}
	if params.AnalysesHandler != nil {
		params.AnalysesHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

func readinessHandler(checks map[string]Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for name, check := range checks {
			if check == nil {
				continue
			}
			g.Go(func() error {
				if err := check.Ping(gctx); err != nil {
					return fmt.Errorf("%s: %w: %w", name, httpx.ErrUnavailable, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logger.Warn("readiness check failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
