package view

import (
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/openaudit/openaudit-visualizer/internal/analytics/svg"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

// Placeholder stands in for values the backend did not provide.
const Placeholder = "-"

var printer = message.NewPrinter(language.English)

var million = decimal.NewFromInt(1_000_000)

// Funcs returns the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"peso":         Peso,
		"pesoMillions": PesoMillions,
		"count":        Count,
		"dash":         Dash,
		"truncate":     Truncate,
		"percent":      Percent,
		"meter":        Meter,
		"formatDate":   FormatDate,
		"analysisType": Humanize,
		"tabActive": func(current, tab Tab) bool {
			return current == tab
		},
	}
}

// Peso formats an amount with thousands separators: ₱1,234,567.5.
func Peso(v any) string {
	d, ok := asDecimal(v)
	if !ok {
		return Placeholder
	}
	f, _ := d.Float64()
	return "₱" + printer.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
}

// PesoMillions formats an amount in millions with one decimal: ₱1234.5M.
func PesoMillions(v any) string {
	d, ok := asDecimal(v)
	if !ok {
		return Placeholder
	}
	return "₱" + d.Div(million).StringFixed(1) + "M"
}

// Count formats an integer with thousands separators. Nil pointers render the placeholder.
func Count(v any) string {
	switch n := v.(type) {
	case int:
		return printer.Sprint(number.Decimal(n))
	case int64:
		return printer.Sprint(number.Decimal(n))
	case *int64:
		if n == nil {
			return Placeholder
		}
		return printer.Sprint(number.Decimal(*n))
	case *int:
		if n == nil {
			return Placeholder
		}
		return printer.Sprint(number.Decimal(*n))
	default:
		return Placeholder
	}
}

// Dash returns the string or the placeholder when it is nil or blank.
func Dash(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case *string:
		if t != nil {
			s = *t
		}
	}
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// Truncate cuts s to at most n characters and marks the cut with "...".
func Truncate(n int, v any) string {
	s := Dash(v)
	if s == Placeholder || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Percent converts a [0,1] fraction to a percentage rounded to one decimal.
func Percent(v any) float64 {
	d, ok := asDecimal(v)
	if !ok {
		return 0
	}
	f, _ := d.Mul(decimal.NewFromInt(100)).Float64()
	return svg.RoundPercent(f)
}

// Meter draws a fraction as a percentage bar.
func Meter(label string, v any) template.HTML {
	return svg.Meter(Percent(v), svg.MeterOpts{Label: label})
}

// Humanize turns a snake_case identifier into title-cased words.
func Humanize(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return Placeholder
	}
	return cases.Title(language.English).String(s)
}

// FormatDate renders a timestamp as "02 Jan 2006 15:04".
func FormatDate(v any) string {
	var t time.Time
	switch ts := v.(type) {
	case time.Time:
		t = ts
	case openaudit.Timestamp:
		t = ts.Time
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006 15:04")
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, true
	case *decimal.Decimal:
		if d == nil {
			return decimal.Decimal{}, false
		}
		return *d, true
	case float64:
		return decimal.NewFromFloat(d), true
	case int64:
		return decimal.NewFromInt(d), true
	default:
		return decimal.Decimal{}, false
	}
}
