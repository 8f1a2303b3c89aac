package ui

import (
	"html/template"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/openaudit/openaudit-visualizer/internal/analytics/svg"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

// Display limits applied to the top-LGU ranking.
const (
	TopLGUQueryLimit = 10
	TopLGUChartRows  = 10
	TopLGUTableRows  = 20
)

// LineRenderer abstracts SVG line chart rendering.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering.
type BarRenderer interface {
	Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// HBarRenderer abstracts ranked horizontal bar rendering.
type HBarRenderer interface {
	HBars(width int, rows []svg.HBar, opts svg.HBarOpts) (template.HTML, error)
}

// Renderers bundles the package-level svg functions behind the interfaces.
type Renderers struct{}

func (Renderers) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

func (Renderers) Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, seriesA, seriesB, labels, opts)
}

func (Renderers) HBars(width int, rows []svg.HBar, opts svg.HBarOpts) (template.HTML, error) {
	return svg.HBars(width, rows, opts)
}

// StatCard is one headline number on the dashboard.
type StatCard struct {
	Title string
	Value string
	Icon  string
}

// DashboardViewModel combines the three dashboard sections.
type DashboardViewModel struct {
	Stats     query.Outcome[openaudit.Stats]
	Cards     []StatCard
	Trends    query.Outcome[[]openaudit.YearlyTrend]
	TrendSVG  template.HTML
	TopLGUs   query.Outcome[[]openaudit.TopLGU]
	TopLGUSVG template.HTML
	TopTable  []openaudit.TopLGU
}

// Pending reports whether any section is still loading.
func (vm DashboardViewModel) Pending() bool {
	return vm.Stats.Pending() || vm.Trends.Pending() || vm.TopLGUs.Pending()
}

// StatCards maps the stats snapshot to cards. Missing fields, and a stats
// query that has not succeeded, render the placeholder.
func StatCards(stats query.Outcome[openaudit.Stats]) []StatCard {
	var s openaudit.Stats
	if stats.Ready() {
		s = stats.Data
	}
	return []StatCard{
		{Title: "Total LGUs", Value: view.Count(s.TotalLGUs), Icon: "🏛️"},
		{Title: "Total Reports", Value: view.Count(s.TotalReports), Icon: "📄"},
		{Title: "Provinces Covered", Value: view.Count(s.ProvincesCount), Icon: "📍"},
		{Title: "Total Unliquidated", Value: view.PesoMillions(s.TotalUnliquidatedAmount), Icon: "💰"},
	}
}

// TrendSeries extracts total_amount per year in response order.
func TrendSeries(rows []openaudit.YearlyTrend) ([]float64, []string) {
	series := make([]float64, 0, len(rows))
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		series = append(series, row.TotalAmount.InexactFloat64())
		labels = append(labels, strconv.Itoa(row.Year))
	}
	return series, labels
}

// TopLGUBars converts at most limit ranking rows to chart bars, keeping their order.
func TopLGUBars(rows []openaudit.TopLGU, limit int) []svg.HBar {
	rows = Head(rows, limit)
	bars := make([]svg.HBar, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, svg.HBar{
			Label:   row.LGUName,
			Value:   row.TotalAmount.InexactFloat64(),
			Caption: view.PesoMillions(row.TotalAmount),
		})
	}
	return bars
}

// Head returns at most n leading elements.
func Head[T any](rows []T, n int) []T {
	if n >= 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

// BreakdownFilters holds the optional year used by the province rollup.
type BreakdownFilters struct {
	Year *int
}

// BreakdownViewModel gathers the aggregate endpoints.
type BreakdownViewModel struct {
	Filters      BreakdownFilters
	Years        query.Outcome[[]int]
	ByYear       query.Outcome[[]openaudit.YearlyAggregate]
	ByYearSVG    template.HTML
	ByProvince   query.Outcome[[]openaudit.ProvinceAggregate]
	Distribution query.Outcome[[]openaudit.AmountRange]
	DistSVG      template.HTML
	Heatmap      query.Outcome[[]openaudit.HeatmapCell]
	Grid         HeatmapGrid
}

// Pending reports whether any section is still loading.
func (vm BreakdownViewModel) Pending() bool {
	return vm.Years.Pending() || vm.ByYear.Pending() || vm.ByProvince.Pending() || vm.Distribution.Pending() || vm.Heatmap.Pending()
}

// SelectedYear returns the filter year or zero.
func (vm BreakdownViewModel) SelectedYear() int {
	if vm.Filters.Year == nil {
		return 0
	}
	return *vm.Filters.Year
}

// YearlySeries extracts the per-year totals in response order.
func YearlySeries(rows []openaudit.YearlyAggregate) ([]float64, []string) {
	series := make([]float64, 0, len(rows))
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		series = append(series, row.TotalAmount.InexactFloat64())
		labels = append(labels, strconv.Itoa(row.Year))
	}
	return series, labels
}

// DistributionSeries extracts bucket counts in response order.
func DistributionSeries(rows []openaudit.AmountRange) ([]float64, []string) {
	series := make([]float64, 0, len(rows))
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		series = append(series, float64(row.Count))
		labels = append(labels, row.Range)
	}
	return series, labels
}

// HeatmapGrid lays out province/year cells as a table.
type HeatmapGrid struct {
	Years []int
	Rows  []HeatmapRow
}

// HeatmapRow is one province across all years.
type HeatmapRow struct {
	Province string
	Cells    []HeatmapCell
}

// HeatmapCell is one amount with its shade level from 0 (empty) to 4.
type HeatmapCell struct {
	Amount *decimal.Decimal
	Level  int
}

// BuildHeatmap reshapes backend cells into a grid. Values are placed, never
// combined; provinces keep their first-seen order and years ascend.
func BuildHeatmap(cells []openaudit.HeatmapCell) HeatmapGrid {
	var grid HeatmapGrid
	yearIdx := map[int]int{}
	for _, c := range cells {
		if _, ok := yearIdx[c.Year]; !ok {
			yearIdx[c.Year] = 0
			grid.Years = append(grid.Years, c.Year)
		}
	}
	sort.Ints(grid.Years)
	for i, y := range grid.Years {
		yearIdx[y] = i
	}

	maxAmount := decimal.Zero
	for _, c := range cells {
		if c.TotalAmount.GreaterThan(maxAmount) {
			maxAmount = c.TotalAmount
		}
	}

	rowIdx := map[string]int{}
	for _, c := range cells {
		province := view.Dash(c.Province)
		idx, ok := rowIdx[province]
		if !ok {
			idx = len(grid.Rows)
			rowIdx[province] = idx
			grid.Rows = append(grid.Rows, HeatmapRow{Province: province, Cells: make([]HeatmapCell, len(grid.Years))})
		}
		amount := c.TotalAmount
		grid.Rows[idx].Cells[yearIdx[c.Year]] = HeatmapCell{Amount: &amount, Level: shade(amount, maxAmount)}
	}
	return grid
}

func shade(amount, maxAmount decimal.Decimal) int {
	if !maxAmount.IsPositive() || !amount.IsPositive() {
		return 0
	}
	ratio := amount.Div(maxAmount).InexactFloat64()
	switch {
	case ratio > 0.75:
		return 4
	case ratio > 0.5:
		return 3
	case ratio > 0.25:
		return 2
	default:
		return 1
	}
}
