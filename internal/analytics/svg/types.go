package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the vertical bar chart renderer. A second series is optional.
type BarOpts struct {
	Title        string
	Description  string
	SeriesALabel string
	SeriesBLabel string
	ColorA       string
	ColorB       string
	AxisColor    string
	GridColor    string
	Padding      float64
	TickCount    int
}

// HBar is one row of a ranked horizontal bar chart.
type HBar struct {
	Label   string
	Value   float64
	Caption string
}

// HBarOpts customises the horizontal bar renderer.
type HBarOpts struct {
	Title       string
	Description string
	Color       string
	AxisColor   string
	LabelWidth  float64
	RowHeight   float64
	Padding     float64
}

// MeterOpts customises the percentage meter.
type MeterOpts struct {
	Label      string
	Color      string
	TrackColor string
	Height     int
}

// Defaults for the dashboard charts.
const (
	DefaultWidth      = 720
	DefaultHeight     = 240
	DefaultPadding    = 32.0
	DefaultTicks      = 5
	DefaultLabelWidth = 180.0
	DefaultRowHeight  = 26.0
	DefaultMeterH     = 10
)
