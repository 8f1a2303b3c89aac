package analytichttp

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/openaudit/openaudit-visualizer/internal/analytics/svg"
	"github.com/openaudit/openaudit-visualizer/internal/analytics/ui"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

var (
	yearsKey        = query.NewKey("transactions/years", nil)
	byYearKey       = query.NewKey("transactions/aggregate/by-year", nil)
	distributionKey = query.NewKey("analytics/distribution/amount-ranges", nil)
	heatmapKey      = query.NewKey("analytics/heatmap/province-year", nil)
)

func byProvinceKey(year *int) query.Key {
	return query.NewKey("transactions/aggregate/by-province", openaudit.YearParam(year))
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	filters, err := parseBreakdownFilters(r)
	if err != nil {
		h.handleFilterError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	vm := h.loadBreakdown(ctx, filters)
	h.buildBreakdownCharts(&vm)

	data := view.Frame(r, h.csrf, "Breakdown", view.TabNone)
	data.Data = vm
	if vm.Pending() {
		data.Refresh = refreshSeconds
	}
	if err := h.templates.Render(w, "pages/breakdown.html", data); err != nil {
		h.handleServerError(w, "render breakdown", err)
	}
}

func parseBreakdownFilters(r *http.Request) (ui.BreakdownFilters, error) {
	year, err := shared.OptionalInt(r.URL.Query(), "year")
	if err != nil {
		return ui.BreakdownFilters{}, err
	}
	return ui.BreakdownFilters{Year: year}, nil
}

func (h *Handler) loadBreakdown(ctx context.Context, filters ui.BreakdownFilters) ui.BreakdownViewModel {
	vm := ui.BreakdownViewModel{Filters: filters}
	var g errgroup.Group
	g.Go(func() error {
		vm.Years = query.Load(ctx, h.cache, yearsKey, h.transactions.Years)
		return nil
	})
	g.Go(func() error {
		vm.ByYear = query.Load(ctx, h.cache, byYearKey, h.transactions.AggregateByYear)
		return nil
	})
	g.Go(func() error {
		vm.ByProvince = query.Load(ctx, h.cache, byProvinceKey(filters.Year), func(ctx context.Context) ([]openaudit.ProvinceAggregate, error) {
			return h.transactions.AggregateByProvince(ctx, filters.Year)
		})
		return nil
	})
	g.Go(func() error {
		vm.Distribution = query.Load(ctx, h.cache, distributionKey, h.analytics.AmountDistribution)
		return nil
	})
	g.Go(func() error {
		vm.Heatmap = query.Load(ctx, h.cache, heatmapKey, h.analytics.ProvinceYearHeatmap)
		return nil
	})
	_ = g.Wait()

	if vm.Heatmap.Ready() {
		vm.Grid = ui.BuildHeatmap(vm.Heatmap.Data)
	}
	return vm
}

func (h *Handler) buildBreakdownCharts(vm *ui.BreakdownViewModel) {
	if h.bar == nil {
		return
	}
	if vm.ByYear.Ready() && len(vm.ByYear.Data) > 0 {
		series, labels := ui.YearlySeries(vm.ByYear.Data)
		chart, err := h.bar.Bars(svg.DefaultWidth, svg.DefaultHeight, series, nil, labels, svg.BarOpts{
			Title:        "Unliquidated by Year",
			SeriesALabel: "Total Amount",
		})
		if err != nil {
			h.logError("render yearly chart", err)
		}
		vm.ByYearSVG = chart
	}
	if vm.Distribution.Ready() && len(vm.Distribution.Data) > 0 {
		series, labels := ui.DistributionSeries(vm.Distribution.Data)
		chart, err := h.bar.Bars(svg.DefaultWidth, svg.DefaultHeight, series, nil, labels, svg.BarOpts{
			Title:        "Amount Distribution",
			SeriesALabel: "Transactions",
			ColorA:       "#6366f1",
		})
		if err != nil {
			h.logError("render distribution chart", err)
		}
		vm.DistSVG = chart
	}
}

func (h *Handler) handleFilterError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid shared.InvalidParamError
	if errors.As(err, &invalid) {
		h.templates.RenderError(w, r, h.logger, http.StatusBadRequest, "Invalid "+invalid.Field)
		return
	}
	h.handleServerError(w, "parse filters", err)
}
