package svg

import (
	"fmt"
	"html/template"
	"math"
)

// RoundPercent rounds to one decimal place.
func RoundPercent(p float64) float64 {
	return math.Round(p*10) / 10
}

// Meter renders a 0-100 percentage bar. The viewBox is 100 units wide so the
// filled width equals the rounded percentage.
func Meter(percent float64, opts MeterOpts) template.HTML {
	p := RoundPercent(math.Max(0, math.Min(100, percent)))
	height := opts.Height
	if height <= 0 {
		height = DefaultMeterH
	}
	label := fallback(opts.Label, fmt.Sprintf("%.1f%%", p))
	return template.HTML(fmt.Sprintf(
		`<svg class="meter" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 %d" preserveAspectRatio="none" role="img" aria-label="%s">`+
			`<rect x="0" y="0" width="100" height="%d" rx="2" fill="%s"></rect>`+
			`<rect x="0" y="0" width="%.1f" height="%d" rx="2" fill="%s"></rect></svg>`,
		height, template.HTMLEscapeString(label),
		height, fallback(opts.TrackColor, "#e2e8f0"),
		p, height, fallback(opts.Color, "#2563eb"),
	))
}
