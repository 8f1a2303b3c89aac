// Package lgus serves the local government listing, search and profile pages.
package lgus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/openaudit/openaudit-visualizer/internal/analyses"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

const refreshSeconds = 2

// API is the LGU slice of the backend client.
type API interface {
	List(ctx context.Context, params openaudit.LGUListParams) ([]openaudit.LocalGovernment, error)
	Provinces(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id int64) (openaudit.LGUDetail, error)
	SearchByName(ctx context.Context, name string) ([]openaudit.LocalGovernment, error)
}

// AnalysesAPI lists stored LLM analyses.
type AnalysesAPI interface {
	Analyses(ctx context.Context, params openaudit.AnalysisListParams) ([]openaudit.LLMAnalysis, error)
}

type searchForm struct {
	Name string `validate:"required,min=2,max=100"`
}

// ListViewModel backs pages/lgu_search.html for both the listing and search results.
type ListViewModel struct {
	Searching   bool
	Name        string
	SearchError string
	Province    string
	Provinces   query.Outcome[[]string]
	LGUs        query.Outcome[[]openaudit.LocalGovernment]
	Pagination  shared.Pagination
}

// PageURL links to another listing page with the same province.
func (vm ListViewModel) PageURL(page int) string {
	v := url.Values{}
	if vm.Province != "" {
		v.Set("province", vm.Province)
	}
	v.Set("page", strconv.Itoa(page))
	return "/lgus?" + v.Encode()
}

// DetailViewModel backs pages/lgu_detail.html.
type DetailViewModel struct {
	ID       int64
	Detail   query.Outcome[openaudit.LGUDetail]
	Analyses query.Outcome[[]openaudit.LLMAnalysis]
	Form     analyses.FormData
}

// Handler serves the LGU pages.
type Handler struct {
	logger    *slog.Logger
	api       API
	llm       AnalysesAPI
	cache     *query.Cache
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
	budget    time.Duration
}

// NewHandler constructs the LGU handler.
func NewHandler(logger *slog.Logger, api API, llm AnalysesAPI, cache *query.Cache, templates *view.Engine, csrf *shared.CSRFManager, budget time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if budget <= 0 {
		budget = 5 * time.Second
	}
	return &Handler{
		logger:    logger,
		api:       api,
		llm:       llm,
		cache:     cache,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
		budget:    budget,
	}
}

// MountRoutes registers the LGU routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/lgus", h.handleList)
	r.Get("/lgus/search", h.handleSearch)
	r.Get("/lgus/{id}", h.handleDetail)
}

var provincesKey = query.NewKey("lgus/provinces", nil)

func lguKey(id int64) query.Key {
	return query.NewKey("lgus/"+strconv.FormatInt(id, 10), nil)
}

func lguAnalysesParams(id int64) openaudit.AnalysisListParams {
	return openaudit.AnalysisListParams{LGUID: &id}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	page := shared.NewPagination(shared.PageFromQuery(values), shared.DefaultPerPage, 0)
	skip, limit := page.Skip(), page.PerPage
	params := openaudit.LGUListParams{Skip: &skip, Limit: &limit, Province: shared.OptionalString(values, "province")}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := ListViewModel{}
	if params.Province != nil {
		vm.Province = *params.Province
	}
	var g errgroup.Group
	g.Go(func() error {
		vm.Provinces = query.Load(ctx, h.cache, provincesKey, h.api.Provinces)
		return nil
	})
	g.Go(func() error {
		vm.LGUs = query.Load(ctx, h.cache, query.NewKey("lgus", params.Values()), func(ctx context.Context) ([]openaudit.LocalGovernment, error) {
			return h.api.List(ctx, params)
		})
		return nil
	})
	_ = g.Wait()

	returned := 0
	if vm.LGUs.Ready() {
		returned = len(vm.LGUs.Data)
	}
	vm.Pagination = shared.NewPagination(page.Page, page.PerPage, returned)
	h.renderList(w, r, http.StatusOK, vm)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	form := searchForm{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
	vm := ListViewModel{Searching: true, Name: form.Name}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.logger.Error("validate lgu search", slog.Any("error", err))
		}
		vm.SearchError = "Enter at least 2 characters to search."
		vm.Provinces = query.Load(ctx, h.cache, provincesKey, h.api.Provinces)
		h.renderList(w, r, http.StatusBadRequest, vm)
		return
	}

	var g errgroup.Group
	g.Go(func() error {
		vm.Provinces = query.Load(ctx, h.cache, provincesKey, h.api.Provinces)
		return nil
	})
	g.Go(func() error {
		vm.LGUs = query.Load(ctx, h.cache, query.NewKey("lgus/search/by-name", openaudit.NameParam(form.Name)), func(ctx context.Context) ([]openaudit.LocalGovernment, error) {
			return h.api.SearchByName(ctx, form.Name)
		})
		return nil
	})
	_ = g.Wait()
	h.renderList(w, r, http.StatusOK, vm)
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, status int, vm ListViewModel) {
	data := view.Frame(r, h.csrf, "Local Government Units", view.TabNone)
	data.Data = vm
	if vm.Provinces.Pending() || (vm.SearchError == "" && vm.LGUs.Pending()) {
		data.Refresh = refreshSeconds
	}
	if err := h.templates.RenderStatus(w, status, "pages/lgu_search.html", data); err != nil {
		h.logger.Error("render pages/lgu_search.html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.templates.RenderError(w, r, h.logger, http.StatusNotFound, "LGU not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := DetailViewModel{ID: id}
	var g errgroup.Group
	g.Go(func() error {
		vm.Detail = query.Load(ctx, h.cache, lguKey(id), func(ctx context.Context) (openaudit.LGUDetail, error) {
			return h.api.Get(ctx, id)
		})
		return nil
	})
	g.Go(func() error {
		params := lguAnalysesParams(id)
		vm.Analyses = query.Load(ctx, h.cache, query.NewKey("llm/analyses", params.Values()), func(ctx context.Context) ([]openaudit.LLMAnalysis, error) {
			return h.llm.Analyses(ctx, params)
		})
		return nil
	})
	_ = g.Wait()

	switch {
	case vm.Detail.Failed() && openaudit.IsNotFound(vm.Detail.Err):
		h.templates.RenderError(w, r, h.logger, http.StatusNotFound, "LGU not found")
		return
	case vm.Detail.Failed():
		h.logger.Warn("load lgu", slog.Int64("lgu_id", id), slog.Any("error", vm.Detail.Err))
		h.templates.RenderError(w, r, h.logger, http.StatusBadGateway, "Failed to load LGU")
		return
	}

	data := view.Frame(r, h.csrf, "LGU", view.TabNone)
	if vm.Detail.Ready() {
		data.Title = vm.Detail.Data.LGU.Name
	}
	vm.Form = analyses.LGUForm(data.CSRFToken, id, r.URL.Path)
	data.Data = vm
	if vm.Detail.Pending() || vm.Analyses.Pending() {
		data.Refresh = refreshSeconds
	}
	h.render(w, "pages/lgu_detail.html", data)
}

func (h *Handler) render(w http.ResponseWriter, name string, data view.TemplateData) {
	if err := h.templates.Render(w, name, data); err != nil {
		h.logger.Error("render "+name, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
