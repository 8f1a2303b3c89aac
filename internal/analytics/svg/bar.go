package svg

import (
	"fmt"
	"html/template"
	"math"
)

// Bars renders a vertical bar chart. seriesB may be empty for a single series.
func Bars(width, height int, seriesA, seriesB []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(seriesA) == 0 && len(seriesB) == 0 {
		return "", fmt.Errorf("svg: at least one series required")
	}
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	if len(seriesA) > 0 && len(seriesA) != len(labels) {
		return "", fmt.Errorf("svg: seriesA length must match labels")
	}
	if len(seriesB) > 0 && len(seriesB) != len(labels) {
		return "", fmt.Errorf("svg: seriesB length must match labels")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	c, err := newCanvas(width, height, padding*1.5, padding, padding, padding, opts.AxisColor, opts.GridColor)
	if err != nil {
		return "", err
	}

	type series struct {
		values []float64
		label  string
		color  string
	}
	var active []series
	if len(seriesA) > 0 {
		active = append(active, series{seriesA, fallback(opts.SeriesALabel, "Series A"), fallback(opts.ColorA, "#0ea5e9")})
	}
	if len(seriesB) > 0 {
		active = append(active, series{seriesB, fallback(opts.SeriesBLabel, "Series B"), fallback(opts.ColorB, "#f97316")})
	}

	minVal, maxVal := valueRange(seriesA, seriesB)
	zeroY := c.y(0, minVal, maxVal)
	slot := c.plotW / float64(len(labels))
	barWidth := slot * 0.7 / float64(len(active))

	c.open("bar", opts.Title, opts.Description, "Bar chart", "Bar comparison")
	c.valueGrid(minVal, maxVal, ticks)
	c.axes(zeroY)

	for i, label := range labels {
		x := c.left + float64(i)*slot + slot*0.15
		for _, s := range active {
			top := c.y(s.values[i], minVal, maxVal)
			y, h := math.Min(top, zeroY), math.Abs(zeroY-top)
			fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s %s: %s</title></rect>`,
				x, y, barWidth, h, s.color, template.HTMLEscapeString(s.label), template.HTMLEscapeString(label), formatTick(s.values[i]))
			x += barWidth
		}
		c.text(c.left+float64(i)*slot+slot/2, c.bottom()+14, "middle", label)
	}

	legendX := c.left
	for _, s := range active {
		fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, legendX, c.top-20, s.color)
		fmt.Fprintf(&c.b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="start">%s</text>`, legendX+14, c.top-11, c.axis, template.HTMLEscapeString(s.label))
		legendX += 110
	}
	return c.close(), nil
}
