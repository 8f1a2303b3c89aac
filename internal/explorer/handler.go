package explorer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

const refreshSeconds = 2

// TransactionsAPI lists transactions and the years they span.
type TransactionsAPI interface {
	List(ctx context.Context, params openaudit.TransactionListParams) ([]openaudit.UnliquidatedTransaction, error)
	Years(ctx context.Context) ([]int, error)
}

// ProvincesAPI lists the provinces known to the backend.
type ProvincesAPI interface {
	Provinces(ctx context.Context) ([]string, error)
}

// ViewModel is the data behind pages/explorer.html.
type ViewModel struct {
	Filters      Filters
	Years        query.Outcome[[]int]
	Provinces    query.Outcome[[]string]
	Transactions query.Outcome[[]openaudit.UnliquidatedTransaction]
	Limit        int
}

// Pending reports whether any section is still loading.
func (vm ViewModel) Pending() bool {
	return vm.Years.Pending() || vm.Provinces.Pending() || vm.Transactions.Pending()
}

// ExportURL links the download of the current listing in the given format.
func (vm ViewModel) ExportURL(format string) string {
	values := vm.Filters.Params().Values()
	values.Del("limit")
	values.Set("format", format)
	return "/explorer/export?" + values.Encode()
}

// Truncated reports whether the table may be missing rows beyond the limit.
func (vm ViewModel) Truncated() bool {
	return vm.Transactions.Ready() && len(vm.Transactions.Data) >= vm.Limit
}

// Handler serves the data explorer.
type Handler struct {
	logger       *slog.Logger
	transactions TransactionsAPI
	provinces    ProvincesAPI
	cache        *query.Cache
	templates    *view.Engine
	csrf         *shared.CSRFManager
	validator    *validator.Validate
	budget       time.Duration
}

// NewHandler constructs the explorer handler.
func NewHandler(logger *slog.Logger, transactions TransactionsAPI, provinces ProvincesAPI, cache *query.Cache, templates *view.Engine, csrf *shared.CSRFManager, budget time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if budget <= 0 {
		budget = 5 * time.Second
	}
	return &Handler{
		logger:       logger,
		transactions: transactions,
		provinces:    provinces,
		cache:        cache,
		templates:    templates,
		csrf:         csrf,
		validator:    validator.New(),
		budget:       budget,
	}
}

// MountRoutes registers the explorer page and its download endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/explorer", h.handleExplorer)
	r.Get("/explorer/export", h.handleExport)
}

var (
	yearsKey     = query.NewKey("transactions/years", nil)
	provincesKey = query.NewKey("lgus/provinces", nil)
)

// TransactionsKey is the cache key of the filtered transaction list.
func TransactionsKey(f Filters) query.Key {
	return query.NewKey("transactions", f.Params().Values())
}

func (h *Handler) handleExplorer(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseFilters(r.URL.Query())
	if err == nil {
		err = filters.Validate(h.validator)
	}
	if err != nil {
		h.handleFilterError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := h.load(ctx, filters)
	data := view.Frame(r, h.csrf, "Data Explorer", view.TabExplorer)
	data.Data = vm
	if vm.Pending() {
		data.Refresh = refreshSeconds
	}
	if err := h.templates.Render(w, "pages/explorer.html", data); err != nil {
		h.logger.Error("render explorer", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) load(ctx context.Context, filters Filters) ViewModel {
	vm := ViewModel{Filters: filters, Limit: PageLimit}

	obs := h.cache.Observe(ctx)
	defer obs.Close()
	params := filters.Params()
	obs.SetKey(TransactionsKey(filters), func(ctx context.Context) (any, error) {
		return h.transactions.List(ctx, params)
	})

	var g errgroup.Group
	g.Go(func() error {
		vm.Years = query.Load(ctx, h.cache, yearsKey, h.transactions.Years)
		return nil
	})
	g.Go(func() error {
		vm.Provinces = query.Load(ctx, h.cache, provincesKey, h.provinces.Provinces)
		return nil
	})
	g.Go(func() error {
		vm.Transactions = query.OutcomeOf[[]openaudit.UnliquidatedTransaction](obs.Wait(ctx))
		return nil
	})
	_ = g.Wait()
	return vm
}

func (h *Handler) handleFilterError(w http.ResponseWriter, r *http.Request, err error) {
	field := ""
	var invalid shared.InvalidParamError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		field = invalid.Field
	case errors.As(err, &verrs) && len(verrs) > 0:
		field = verrs[0].Field()
	default:
		h.logger.Error("parse explorer filters", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.RenderError(w, r, h.logger, http.StatusBadRequest, "Invalid "+filterLabel(field))
}

func filterLabel(field string) string {
	switch field {
	case "Year":
		return "year"
	case "Province":
		return "province"
	case "MinAmount":
		return "min_amount"
	case "MaxAmount":
		return "max_amount"
	}
	return strings.ToLower(field)
}
