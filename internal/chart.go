package jobtop

import (
	"time"

	"github.com/prometheus/common/model"
)

// AxisConfig is one axis of the chart.
type AxisConfig struct {
	Mode       string
	Label      string
	Min        float64
	Max        float64 // zero means derived from data
	Position   string
	TickLength int
	AlignTicks bool
}

// Marking is a shaded x range.
type Marking struct {
	From model.Time
	To   model.Time
}

// MarkingsFunc computes background markings for the visible x range.
type MarkingsFunc func(from, to model.Time) []Marking

// ChartConfiguration is built once from the session schema and never
// mutated afterwards.
type ChartConfiguration struct {
	XAxis          AxisConfig
	YAxes          [2]AxisConfig
	MarginLeft     int
	MarginRight    int
	LabelMargin    int
	LineWidth      int
	LegendPosition string
	SelectionMode  string
	Markings       MarkingsFunc
}

// NewChartConfiguration returns the chart layout for schema.
func NewChartConfiguration(schema Schema, weekends bool) ChartConfiguration {
	cfg := ChartConfiguration{
		XAxis: AxisConfig{Mode: "time", Position: "bottom", TickLength: 5},
		YAxes: [2]AxisConfig{
			{Label: schema.PrimaryLabel, Min: 0, Max: schema.PrimaryMax, Position: "left"},
			{Label: schema.SecondaryLabel, Min: 0, Position: "right", AlignTicks: true},
		},
		MarginLeft:     20,
		MarginRight:    20,
		LabelMargin:    10,
		LineWidth:      1,
		LegendPosition: "sw",
		SelectionMode:  "x",
	}
	if weekends {
		cfg.Markings = WeekendMarkings
	}
	return cfg
}

// Axis returns the y axis config for a series axis.
func (c ChartConfiguration) Axis(a Axis) AxisConfig {
	if a == SecondaryAxis {
		return c.YAxes[1]
	}
	return c.YAxes[0]
}

// WeekendMarkings returns Saturday 00:00 to Monday 00:00 ranges that
// overlap [from, to], clipped to it. Plotted timestamps are already
// shifted to local wall clock, so they are read as UTC here.
func WeekendMarkings(from, to model.Time) []Marking {
	if to <= from {
		return nil
	}
	start := from.Time().UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	// back up to the Saturday starting the weekend we may be inside
	offset := (int(day.Weekday()) + 1) % 7
	sat := day.AddDate(0, 0, -offset)

	var out []Marking
	for ; model.TimeFromUnixNano(sat.UnixNano()) < to; sat = sat.AddDate(0, 0, 7) {
		m := Marking{
			From: model.TimeFromUnixNano(sat.UnixNano()),
			To:   model.TimeFromUnixNano(sat.AddDate(0, 0, 2).UnixNano()),
		}
		if m.To <= from {
			continue
		}
		m.From = max(m.From, from)
		m.To = min(m.To, to)
		out = append(out, m)
	}
	return out
}
