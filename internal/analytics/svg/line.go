package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders a line chart of series against labels, in the given order.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
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
	stroke := fallback(opts.StrokeColor, "#1d4ed8")
	fill := fallback(opts.FillColor, "rgba(29,78,216,0.12)")

	minVal, maxVal := valueRange(series)
	xAt := func(i int) float64 {
		if len(series) == 1 {
			return c.left + c.plotW/2
		}
		return c.left + float64(i)*c.plotW/float64(len(series)-1)
	}

	var path strings.Builder
	for i, value := range series {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			path.WriteByte(' ')
		}
		fmt.Fprintf(&path, "%s%.2f %.2f", cmd, xAt(i), c.y(value, minVal, maxVal))
	}

	c.open("line", opts.Title, opts.Description, "Line chart", "Trend data")
	c.valueGrid(minVal, maxVal, ticks)
	baseline := c.y(0, minVal, maxVal)
	c.axes(baseline)

	area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), xAt(len(series)-1), baseline, xAt(0), baseline)
	fmt.Fprintf(&c.b, `<path d="%s" fill="%s" stroke="none" aria-hidden="true"></path>`, area, fill)
	fmt.Fprintf(&c.b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, path.String(), stroke)

	for i, value := range series {
		if opts.ShowDots {
			fmt.Fprintf(&c.b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"><title>%s: %s</title></circle>`,
				xAt(i), c.y(value, minVal, maxVal), stroke, template.HTMLEscapeString(labels[i]), formatTick(value))
		}
		c.text(xAt(i), c.bottom()+14, "middle", labels[i])
	}
	return c.close(), nil
}
