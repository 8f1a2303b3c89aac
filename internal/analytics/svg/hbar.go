package svg

import (
	"fmt"
	"html/template"
)

// HBars renders ranked rows as horizontal bars, top to bottom in the order given.
// The chart grows with the number of rows.
func HBars(width int, rows []HBar, opts HBarOpts) (template.HTML, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("svg: rows required")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding / 2
	}
	labelWidth := opts.LabelWidth
	if labelWidth <= 0 {
		labelWidth = DefaultLabelWidth
	}
	rowHeight := opts.RowHeight
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	height := int(2*padding + rowHeight*float64(len(rows)))
	// The right margin leaves room for the value caption.
	c, err := newCanvas(width, height, labelWidth, padding, padding+72, padding, opts.AxisColor, "")
	if err != nil {
		return "", err
	}
	color := fallback(opts.Color, "#dc2626")

	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = row.Value
	}
	_, maxVal := valueRange(values)

	c.open("hbar", opts.Title, opts.Description, "Ranking", "Ranked values")
	for i, row := range rows {
		y := c.top + float64(i)*rowHeight
		barH := rowHeight * 0.7
		barW := 0.0
		if row.Value > 0 {
			barW = row.Value / maxVal * c.plotW
		}
		caption := row.Caption
		if caption == "" {
			caption = formatTick(row.Value)
		}
		c.text(c.left-8, y+barH/2+4, "end", row.Label)
		fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s: %s</title></rect>`,
			c.left, y, barW, barH, color, template.HTMLEscapeString(row.Label), template.HTMLEscapeString(caption))
		c.text(c.left+barW+6, y+barH/2+4, "start", caption)
	}
	fmt.Fprintf(&c.b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" aria-hidden="true"></line>`, c.left, c.top, c.left, c.bottom(), c.axis)
	return c.close(), nil
}
