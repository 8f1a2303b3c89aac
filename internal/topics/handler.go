// Package topics serves the LDA topic catalog.
package topics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

const refreshSeconds = 2

// TermsLimit is the number of characters of key terms shown on a card.
const TermsLimit = 100

// API is the topic slice of the backend client.
type API interface {
	List(ctx context.Context) ([]openaudit.AuditTopic, error)
	Get(ctx context.Context, id int64) (openaudit.AuditTopic, error)
	Analysis(ctx context.Context, id int64) (openaudit.TopicAnalysis, error)
}

// ListViewModel backs pages/topics.html.
type ListViewModel struct {
	Topics     query.Outcome[[]openaudit.AuditTopic]
	TermsLimit int
}

// DetailViewModel backs pages/topic_detail.html.
type DetailViewModel struct {
	ID         int64
	Topic      query.Outcome[openaudit.AuditTopic]
	Analysis   query.Outcome[openaudit.TopicAnalysis]
	TermsLimit int
}

// Handler serves the topic pages.
type Handler struct {
	logger    *slog.Logger
	api       API
	cache     *query.Cache
	templates *view.Engine
	csrf      *shared.CSRFManager
	budget    time.Duration
}

// NewHandler constructs the topics handler.
func NewHandler(logger *slog.Logger, api API, cache *query.Cache, templates *view.Engine, csrf *shared.CSRFManager, budget time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if budget <= 0 {
		budget = 5 * time.Second
	}
	return &Handler{logger: logger, api: api, cache: cache, templates: templates, csrf: csrf, budget: budget}
}

// MountRoutes registers the topic routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/topics", h.handleList)
	r.Get("/topics/{id}", h.handleDetail)
}

var listKey = query.NewKey("topics", nil)

func topicKey(id int64) query.Key {
	return query.NewKey("topics/"+strconv.FormatInt(id, 10), nil)
}

func analysisKey(id int64) query.Key {
	return query.NewKey("topics/"+strconv.FormatInt(id, 10)+"/analysis", nil)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := ListViewModel{
		Topics:     query.Load(ctx, h.cache, listKey, h.api.List),
		TermsLimit: TermsLimit,
	}
	data := view.Frame(r, h.csrf, "Audit Topics", view.TabTopics)
	data.Data = vm
	if vm.Topics.Pending() {
		data.Refresh = refreshSeconds
	}
	h.render(w, "pages/topics.html", data)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.templates.RenderError(w, r, h.logger, http.StatusNotFound, "Topic not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := DetailViewModel{ID: id}
	var g errgroup.Group
	g.Go(func() error {
		vm.Topic = query.Load(ctx, h.cache, topicKey(id), func(ctx context.Context) (openaudit.AuditTopic, error) {
			return h.api.Get(ctx, id)
		})
		return nil
	})
	g.Go(func() error {
		vm.Analysis = query.Load(ctx, h.cache, analysisKey(id), func(ctx context.Context) (openaudit.TopicAnalysis, error) {
			return h.api.Analysis(ctx, id)
		})
		return nil
	})
	_ = g.Wait()

	switch {
	case vm.Topic.Failed() && openaudit.IsNotFound(vm.Topic.Err):
		h.templates.RenderError(w, r, h.logger, http.StatusNotFound, "Topic not found")
		return
	case vm.Topic.Failed():
		h.logger.Warn("load topic", slog.Int64("topic_id", id), slog.Any("error", vm.Topic.Err))
		h.templates.RenderError(w, r, h.logger, http.StatusBadGateway, "Failed to load topic")
		return
	}

	vm.TermsLimit = TermsLimit
	data := view.Frame(r, h.csrf, "Topic", view.TabTopics)
	if vm.Topic.Ready() {
		data.Title = "Topic " + strconv.Itoa(vm.Topic.Data.TopicNumber)
	}
	data.Data = vm
	if vm.Topic.Pending() || vm.Analysis.Pending() {
		data.Refresh = refreshSeconds
	}
	h.render(w, "pages/topic_detail.html", data)
}

func (h *Handler) render(w http.ResponseWriter, name string, data view.TemplateData) {
	if err := h.templates.Render(w, name, data); err != nil {
		h.logger.Error("render "+name, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
