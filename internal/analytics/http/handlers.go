package analytichttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openaudit/openaudit-visualizer/internal/analytics/svg"
	"github.com/openaudit/openaudit-visualizer/internal/analytics/ui"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

// DefaultRenderBudget bounds how long a page waits for its queries.
const DefaultRenderBudget = 5 * time.Second

const refreshSeconds = 2

// AnalyticsAPI is the slice of the backend analytics endpoints used here.
type AnalyticsAPI interface {
	Stats(ctx context.Context) (openaudit.Stats, error)
	YearlyTrends(ctx context.Context) ([]openaudit.YearlyTrend, error)
	AmountDistribution(ctx context.Context) ([]openaudit.AmountRange, error)
	ProvinceYearHeatmap(ctx context.Context) ([]openaudit.HeatmapCell, error)
}

// TransactionsAPI is the slice of the backend transaction endpoints used here.
type TransactionsAPI interface {
	Years(ctx context.Context) ([]int, error)
	TopLGUs(ctx context.Context, params openaudit.TopLGUParams) ([]openaudit.TopLGU, error)
	AggregateByYear(ctx context.Context) ([]openaudit.YearlyAggregate, error)
	AggregateByProvince(ctx context.Context, year *int) ([]openaudit.ProvinceAggregate, error)
}

// Handler serves the dashboard and the aggregate breakdown pages.
type Handler struct {
	logger       *slog.Logger
	analytics    AnalyticsAPI
	transactions TransactionsAPI
	cache        *query.Cache
	templates    *view.Engine
	csrf         *shared.CSRFManager
	line         ui.LineRenderer
	bar          ui.BarRenderer
	hbar         ui.HBarRenderer
	budget       time.Duration
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, analytics AnalyticsAPI, transactions TransactionsAPI, cache *query.Cache, templates *view.Engine, csrf *shared.CSRFManager, line ui.LineRenderer, bar ui.BarRenderer, hbar ui.HBarRenderer, budget time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if budget <= 0 {
		budget = DefaultRenderBudget
	}
	return &Handler{
		logger:       logger,
		analytics:    analytics,
		transactions: transactions,
		cache:        cache,
		templates:    templates,
		csrf:         csrf,
		line:         line,
		bar:          bar,
		hbar:         hbar,
		budget:       budget,
	}
}

// Query keys for the dashboard sections.
var (
	statsKey  = query.NewKey("analytics/stats", nil)
	trendsKey = query.NewKey("analytics/trends/yearly", nil)
)

func topLGUParams() openaudit.TopLGUParams {
	return openaudit.TopLGUParams{Limit: ui.TopLGUQueryLimit}
}

func topLGUKey() query.Key {
	return query.NewKey("transactions/top-lgus", topLGUParams().Values())
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := h.loadDashboard(ctx)
	h.buildDashboardCharts(&vm)

	data := view.Frame(r, h.csrf, "Dashboard", view.TabDashboard)
	data.Data = vm
	if vm.Pending() {
		data.Refresh = refreshSeconds
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.handleServerError(w, "render dashboard", err)
	}
}

// loadDashboard runs the three independent queries. A failure stays inside its section.
func (h *Handler) loadDashboard(ctx context.Context) ui.DashboardViewModel {
	var vm ui.DashboardViewModel
	var g errgroup.Group
	g.Go(func() error {
		vm.Stats = query.Load(ctx, h.cache, statsKey, h.analytics.Stats)
		return nil
	})
	g.Go(func() error {
		vm.Trends = query.Load(ctx, h.cache, trendsKey, h.analytics.YearlyTrends)
		return nil
	})
	g.Go(func() error {
		vm.TopLGUs = query.Load(ctx, h.cache, topLGUKey(), func(ctx context.Context) ([]openaudit.TopLGU, error) {
			return h.transactions.TopLGUs(ctx, topLGUParams())
		})
		return nil
	})
	_ = g.Wait()

	vm.Cards = ui.StatCards(vm.Stats)
	if vm.TopLGUs.Ready() {
		vm.TopTable = ui.Head(vm.TopLGUs.Data, ui.TopLGUTableRows)
	}
	return vm
}

func (h *Handler) buildDashboardCharts(vm *ui.DashboardViewModel) {
	if vm.Trends.Ready() && len(vm.Trends.Data) > 0 && h.line != nil {
		series, labels := ui.TrendSeries(vm.Trends.Data)
		chart, err := h.line.Line(svg.DefaultWidth, svg.DefaultHeight+60, series, labels, svg.LineOpts{
			Title:       "Yearly Trends",
			Description: "Total unliquidated amount per year",
			StrokeColor: "#0ea5e9",
			ShowDots:    true,
		})
		if err != nil {
			h.logError("render trend chart", err)
		}
		vm.TrendSVG = chart
	}
	if vm.TopLGUs.Ready() && len(vm.TopLGUs.Data) > 0 && h.hbar != nil {
		chart, err := h.hbar.HBars(svg.DefaultWidth, ui.TopLGUBars(vm.TopLGUs.Data, ui.TopLGUChartRows), svg.HBarOpts{
			Title:       "Top 10 LGUs by Unliquidated Amount",
			Description: "LGUs ranked by total unliquidated amount",
			Color:       "#0ea5e9",
		})
		if err != nil {
			h.logError("render top lgu chart", err)
		}
		vm.TopLGUSVG = chart
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
