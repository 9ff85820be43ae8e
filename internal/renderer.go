package jobtop

import (
	"errors"
	"time"
)

// Surface is a drawing backend for the chart.
type Surface interface {
	// Create builds the chart once with its fixed configuration.
	Create(cfg ChartConfiguration, series []MetricSeries) error
	// SetData replaces all series without touching axis geometry or the
	// viewer's zoom, pan and legend state.
	SetData(series []MetricSeries)
	Draw()
	// LabelSize is the unrotated size of text as the surface renders it.
	LabelSize(text string) (width, height int)
	// PlaceLabel puts a vertical axis label with its top-left corner at x, y.
	PlaceLabel(axis Axis, text string, x, y int)
	Size() (width, height int)
}

// LabelPlacement is where an axis label was put.
type LabelPlacement struct {
	Text string
	X, Y int
}

var ErrNotInitialized = errors.New("chart not initialized")

// ChartAdapter owns the single chart. It moves from uninitialized to
// initialized once and never back.
type ChartAdapter struct {
	surface     Surface
	config      ChartConfiguration
	initialized bool
	labels      [2]LabelPlacement
	observe     func(time.Duration)
}

func NewChartAdapter(surface Surface, config ChartConfiguration) *ChartAdapter {
	return &ChartAdapter{surface: surface, config: config}
}

// ObserveRender registers a callback receiving the duration of each draw.
func (a *ChartAdapter) ObserveRender(fn func(time.Duration)) *ChartAdapter {
	a.observe = fn
	return a
}

func (a *ChartAdapter) Initialized() bool { return a.initialized }

func (a *ChartAdapter) Labels() [2]LabelPlacement { return a.labels }

// Render creates the chart on first use and updates it afterwards.
func (a *ChartAdapter) Render(series []MetricSeries) error {
	if !a.initialized {
		return a.Initialize(series)
	}
	return a.Update(series)
}

// Initialize creates the chart and places both axis labels. Calling it on
// an initialized chart falls through to Update.
func (a *ChartAdapter) Initialize(series []MetricSeries) error {
	if a.initialized {
		return a.Update(series)
	}
	start := time.Now()
	if err := a.surface.Create(a.config, series); err != nil {
		return err
	}
	a.initialized = true
	a.placeLabels()
	a.surface.Draw()
	a.record(start)
	return nil
}

// Update swaps the data and redraws. Axis geometry stays as created.
func (a *ChartAdapter) Update(series []MetricSeries) error {
	if !a.initialized {
		return ErrNotInitialized
	}
	start := time.Now()
	a.surface.SetData(series)
	a.surface.Draw()
	a.record(start)
	return nil
}

// Resize re-places the labels after the surface changed size.
func (a *ChartAdapter) Resize() {
	if !a.initialized {
		return
	}
	a.placeLabels()
	a.surface.Draw()
}

// placeLabels positions the rotated labels from their measured size, so
// the label's width runs vertically. The primary one hugs the left edge,
// the secondary one the right edge, both centred vertically.
func (a *ChartAdapter) placeLabels() {
	width, height := a.surface.Size()

	primary := a.config.YAxes[0].Label
	pw, _ := a.surface.LabelSize(primary)
	a.labels[0] = LabelPlacement{Text: primary, X: 0, Y: max((height-pw)/2, 0)}

	secondary := a.config.YAxes[1].Label
	sw, sh := a.surface.LabelSize(secondary)
	a.labels[1] = LabelPlacement{Text: secondary, X: max(width-sh, 0), Y: max((height-sw)/2, 0)}

	a.surface.PlaceLabel(PrimaryAxis, a.labels[0].Text, a.labels[0].X, a.labels[0].Y)
	a.surface.PlaceLabel(SecondaryAxis, a.labels[1].Text, a.labels[1].X, a.labels[1].Y)
}

func (a *ChartAdapter) record(start time.Time) {
	if a.observe != nil {
		a.observe(time.Since(start))
	}
}
