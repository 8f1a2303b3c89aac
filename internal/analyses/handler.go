package analyses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

const refreshSeconds = 2

// SubmitLimit caps analysis submissions per client IP per minute.
const SubmitLimit = 5

// API is the read side of the backend LLM endpoints.
type API interface {
	Analyses(ctx context.Context, params openaudit.AnalysisListParams) ([]openaudit.LLMAnalysis, error)
	Analysis(ctx context.Context, id int64) (openaudit.LLMAnalysis, error)
}

// Filters narrows the analyses listing.
type Filters struct {
	LGUID        *int64
	AnalysisType *string
}

// SelectedType returns the type filter or an empty string.
func (f Filters) SelectedType() string {
	if f.AnalysisType == nil {
		return ""
	}
	return *f.AnalysisType
}

// LGUValue is the lgu_id control's current value.
func (f Filters) LGUValue() string { return shared.FormatOptional(f.LGUID) }

// ListViewModel backs pages/analyses.html.
type ListViewModel struct {
	Filters    Filters
	Types      []TypeOption
	Analyses   query.Outcome[[]openaudit.LLMAnalysis]
	Pagination shared.Pagination
}

// PageURL links to another page with the same filters.
func (vm ListViewModel) PageURL(page int) string {
	params := listParams(vm.Filters, shared.NewPagination(page, vm.Pagination.PerPage, 0))
	v := params.Values()
	v.Del("skip")
	v.Del("limit")
	v.Set("page", strconv.Itoa(page))
	return "/analyses?" + v.Encode()
}

// DetailViewModel backs pages/analysis_detail.html.
type DetailViewModel struct {
	Analysis openaudit.LLMAnalysis
}

// Handler serves the analysis pages and the submit endpoint.
type Handler struct {
	logger       *slog.Logger
	api          API
	submitter    Submitter
	cache        *query.Cache
	templates    *view.Engine
	csrf         *shared.CSRFManager
	validator    *validator.Validate
	defaultModel string
	budget       time.Duration
	submitLimit  int
}

// Option customises the handler.
type Option func(*Handler)

// WithDefaultModel sends model with every submission.
func WithDefaultModel(model string) Option {
	return func(h *Handler) { h.defaultModel = model }
}

// WithRenderBudget bounds how long list and detail pages wait.
func WithRenderBudget(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.budget = d
		}
	}
}

// WithSubmitLimit overrides the per-IP submission limit.
func WithSubmitLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.submitLimit = n
		}
	}
}

// NewHandler constructs the analyses handler.
func NewHandler(logger *slog.Logger, api API, submitter Submitter, cache *query.Cache, templates *view.Engine, csrf *shared.CSRFManager, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:      logger,
		api:         api,
		submitter:   submitter,
		cache:       cache,
		templates:   templates,
		csrf:        csrf,
		validator:   validator.New(),
		budget:      5 * time.Second,
		submitLimit: SubmitLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MountRoutes registers the analysis routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/analyses", h.handleList)
	r.Get("/analyses/{id}", h.handleDetail)
	r.With(httprate.Limit(h.submitLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).Post("/analyses", h.handleSubmit)
}

func listParams(f Filters, page shared.Pagination) openaudit.AnalysisListParams {
	skip, limit := page.Skip(), page.PerPage
	return openaudit.AnalysisListParams{
		LGUID:        f.LGUID,
		AnalysisType: f.AnalysisType,
		Skip:         &skip,
		Limit:        &limit,
	}
}

func analysisKey(id int64) query.Key {
	return query.NewKey("llm/analyses/"+strconv.FormatInt(id, 10), nil)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	lguID, err := shared.OptionalInt64(values, "lgu_id")
	if err != nil {
		h.templates.RenderError(w, r, h.logger, http.StatusBadRequest, "Invalid lgu_id")
		return
	}
	filters := Filters{LGUID: lguID, AnalysisType: shared.OptionalString(values, "analysis_type")}
	page := shared.NewPagination(shared.PageFromQuery(values), shared.DefaultPerPage, 0)
	params := listParams(filters, page)

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := ListViewModel{Filters: filters, Types: Types}
	vm.Analyses = query.Load(ctx, h.cache, query.NewKey("llm/analyses", params.Values()), func(ctx context.Context) ([]openaudit.LLMAnalysis, error) {
		return h.api.Analyses(ctx, params)
	})
	returned := 0
	if vm.Analyses.Ready() {
		returned = len(vm.Analyses.Data)
	}
	vm.Pagination = shared.NewPagination(page.Page, page.PerPage, returned)

	data := view.Frame(r, h.csrf, "LLM Analyses", view.TabNone)
	data.Data = vm
	if vm.Analyses.Pending() {
		data.Refresh = refreshSeconds
	}
	h.render(w, "pages/analyses.html", data)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.templates.RenderError(w, r, h.logger, http.StatusNotFound, "Analysis not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	out := query.Load(ctx, h.cache, analysisKey(id), func(ctx context.Context) (openaudit.LLMAnalysis, error) {
		return h.api.Analysis(ctx, id)
	})
	switch {
	case out.Failed() && openaudit.IsNotFound(out.Err):
		h.templates.RenderError(w, r, h.logger, http.StatusNotFound, "Analysis not found")
		return
	case out.Failed():
		h.logger.Warn("load analysis", slog.Int64("analysis_id", id), slog.Any("error", out.Err))
		h.templates.RenderError(w, r, h.logger, http.StatusBadGateway, "Failed to load analysis")
		return
	case out.Pending():
		data := view.Frame(r, h.csrf, "Analysis", view.TabNone)
		data.Refresh = refreshSeconds
		h.render(w, "pages/analysis_detail.html", data)
		return
	}

	data := view.Frame(r, h.csrf, fmt.Sprintf("Analysis #%d", id), view.TabNone)
	data.Data = DetailViewModel{Analysis: out.Data}
	h.render(w, "pages/analysis_detail.html", data)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form, err := parseSubmitForm(r.PostForm)
	back := safeRedirect(form.ReturnTo, "/analyses")
	if err == nil {
		err = form.validate(h.validator)
	}
	if err != nil {
		flash(sess, "error", validationMessage(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	receipt, err := h.submitter.Submit(r.Context(), form.request(h.defaultModel))
	if err != nil {
		h.logger.Warn("submit analysis", slog.String("analysis_type", form.AnalysisType), slog.Any("error", err))
		flash(sess, "error", submitFailure(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if receipt.Queued {
		h.logger.Info("analysis queued", slog.String("task_id", receipt.TaskID), slog.String("analysis_type", form.AnalysisType))
		flash(sess, "success", "Analysis queued. It will appear in the list once the backend finishes.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	flash(sess, "success", "Analysis complete.")
	http.Redirect(w, r, "/analyses/"+strconv.FormatInt(receipt.AnalysisID, 10), http.StatusSeeOther)
}

func submitFailure(err error) string {
	var apiErr *openaudit.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return "The analysis could not be submitted: " + apiErr.Detail
	}
	return "The analysis could not be submitted. Try again later."
}

func flash(sess *shared.Session, kind, message string) {
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data view.TemplateData) {
	if err := h.templates.Render(w, name, data); err != nil {
		h.logger.Error("render "+name, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
