package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// canvas accumulates the markup shared by every chart: the root element,
// accessible title and description, value grid and axes.
type canvas struct {
	b       strings.Builder
	width   int
	height  int
	left    float64
	top     float64
	plotW   float64
	plotH   float64
	axis    string
	grid    string
	titleID string
	descID  string
}

func newCanvas(width, height int, left, top, right, bottom float64, axis, grid string) (*canvas, error) {
	c := &canvas{
		width:  width,
		height: height,
		left:   left,
		top:    top,
		plotW:  float64(width) - left - right,
		plotH:  float64(height) - top - bottom,
		axis:   fallback(axis, "#475569"),
		grid:   fallback(grid, "#cbd5e1"),
	}
	if c.plotW <= 0 || c.plotH <= 0 {
		return nil, fmt.Errorf("svg: viewport too small")
	}
	return c, nil
}

func (c *canvas) open(kind, title, desc, defaultTitle, defaultDesc string) {
	c.titleID = makeID(title, kind+"-title")
	c.descID = makeID(title, kind+"-desc")
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, c.width, c.height, c.titleID, c.descID)
	fmt.Fprintf(&c.b, `<title id="%s">%s</title>`, c.titleID, template.HTMLEscapeString(fallback(title, defaultTitle)))
	fmt.Fprintf(&c.b, `<desc id="%s">%s</desc>`, c.descID, template.HTMLEscapeString(fallback(desc, defaultDesc)))
}

func (c *canvas) bottom() float64 { return c.top + c.plotH }

// y maps a value onto the plot for the given range.
func (c *canvas) y(value, minVal, maxVal float64) float64 {
	return c.bottom() - (value-minVal)/(maxVal-minVal)*c.plotH
}

func (c *canvas) valueGrid(minVal, maxVal float64, ticks int) {
	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := c.bottom() - ratio*c.plotH
		value := minVal + (maxVal-minVal)*ratio
		fmt.Fprintf(&c.b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`, c.left, y, c.left+c.plotW, y, c.grid)
		c.text(c.left-6, y+4, "end", formatTick(value))
	}
}

func (c *canvas) axes(baseline float64) {
	fmt.Fprintf(&c.b, `<g stroke="%s" aria-hidden="true">`, c.axis)
	fmt.Fprintf(&c.b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, c.left, c.top, c.left, c.bottom())
	fmt.Fprintf(&c.b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, c.left, baseline, c.left+c.plotW, baseline)
	c.b.WriteString("</g>")
}

func (c *canvas) text(x, y float64, anchor, s string) {
	fmt.Fprintf(&c.b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="%s">%s</text>`, x, y, c.axis, anchor, template.HTMLEscapeString(s))
}

func (c *canvas) close() template.HTML {
	c.b.WriteString("</svg>")
	return template.HTML(c.b.String())
}

// valueRange returns bounds across all series that always include zero.
func valueRange(series ...[]float64) (float64, float64) {
	minVal, maxVal := 0.0, 0.0
	for _, s := range series {
		for _, v := range s {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	return minVal, maxVal
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

// formatTick abbreviates axis values: 1.2B, 3.4M, 5.6k.
func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
