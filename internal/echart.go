package jobtop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	// approximate glyph size of the echarts default 12px font
	glyphWidth  = 7
	glyphHeight = 14
	tickGap     = 30
	// room between the page edge and the plot for label and tick values
	plotInset = glyphHeight + tickGap + 16
)

// EChartSurface renders the chart as a standalone go-echarts HTML page.
// HTTP handlers read the last snapshot concurrently with poll updates.
type EChartSurface struct {
	mu      sync.RWMutex
	title   string
	width   int
	height  int
	config  ChartConfiguration
	created bool
	series  []MetricSeries
	labels  map[Axis]LabelPlacement
	html    []byte

	refreshPath  string
	refreshEvery time.Duration
}

func NewEChartSurface(title string, width, height int) *EChartSurface {
	return &EChartSurface{
		title:  title,
		width:  width,
		height: height,
		labels: make(map[Axis]LabelPlacement),
	}
}

// WithRefresh makes the page poll path for series JSON every interval and
// merge it into the live chart, keeping zoom and legend state.
func (s *EChartSurface) WithRefresh(path string, every time.Duration) *EChartSurface {
	s.refreshPath = path
	s.refreshEvery = every
	return s
}

func (s *EChartSurface) Create(cfg ChartConfiguration, series []MetricSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return fmt.Errorf("html chart already created")
	}
	s.config = cfg
	s.series = series
	s.created = true
	return nil
}

func (s *EChartSurface) SetData(series []MetricSeries) {
	s.mu.Lock()
	s.series = series
	s.mu.Unlock()
}

func (s *EChartSurface) LabelSize(text string) (int, int) {
	return utf8.RuneCountInString(text) * glyphWidth, glyphHeight
}

func (s *EChartSurface) PlaceLabel(axis Axis, text string, x, y int) {
	s.mu.Lock()
	s.labels[axis] = LabelPlacement{Text: text, X: x, Y: y}
	s.mu.Unlock()
}

func (s *EChartSurface) Size() (int, int) { return s.width, s.height }

// Draw rebuilds the page from the current series and stores it.
func (s *EChartSurface) Draw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.build().Render(&buf); err != nil {
		log.Printf("rendering html chart: %v", err)
		return
	}
	s.html = buf.Bytes()
}

// HTML returns the last rendered page, or nil before the first draw.
func (s *EChartSurface) HTML() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.html
}

// Labels returns the axis label placements in pixels.
func (s *EChartSurface) Labels() map[Axis]LabelPlacement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Axis]LabelPlacement, len(s.labels))
	for k, v := range s.labels {
		out[k] = v
	}
	return out
}

// Series returns the series last handed to the surface.
func (s *EChartSurface) Series() []MetricSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.series
}

func (s *EChartSurface) yAxis(axis AxisConfig) opts.YAxis {
	y := opts.YAxis{
		Type:     "value",
		Position: axis.Position,
		Min:      axis.Min,
	}
	if axis.Max > 0 {
		y.Max = axis.Max
	}
	if axis.AlignTicks {
		y.AlignTicks = opts.Bool(true)
	}
	return y
}

func (s *EChartSurface) build() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: s.title,
			Width:     fmt.Sprintf("%dpx", s.width),
			Height:    fmt.Sprintf("%dpx", s.height),
		}),
		charts.WithTitleOpts(opts.Title{Title: s.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(legendPosition(s.config.LegendPosition)),
		charts.WithGridOpts(opts.Grid{
			Left:  fmt.Sprintf("%dpx", plotInset),
			Right: fmt.Sprintf("%dpx", plotInset),
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithYAxisOpts(s.yAxis(s.config.YAxes[0])),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", XAxisIndex: []int{0}, Start: 0, End: 100},
			opts.DataZoom{Type: "slider", XAxisIndex: []int{0}, Start: 0, End: 100},
		),
	)
	line.ExtendYAxis(s.yAxis(s.config.YAxes[1]))

	var markings []Marking
	if from, to, ok := Bounds(s.series); ok && s.config.Markings != nil {
		markings = s.config.Markings(from, to)
	}

	for i, ms := range s.series {
		data := make([]opts.LineData, len(ms.Points))
		for j, p := range ms.Points {
			data[j] = opts.LineData{Value: []interface{}{int64(p.Timestamp), p.Value}}
		}

		lc := opts.LineChart{ShowSymbol: opts.Bool(false), YAxisIndex: int(ms.Axis) - 1}
		seriesOpts := []charts.SeriesOpts{
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ms.Color}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: float32(s.config.LineWidth), Color: ms.Color}),
		}
		if ms.Stack {
			lc.Stack = "cpu"
			seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{Color: ms.Color, Opacity: opts.Float(0.6)}))
		}
		seriesOpts = append(seriesOpts, charts.WithLineChartOpts(lc))

		// weekend bands ride on the first series only
		if i == 0 && len(markings) > 0 {
			areas := make([][]opts.MarkAreaData, len(markings))
			for k, m := range markings {
				areas[k] = []opts.MarkAreaData{
					{Name: "weekend", XAxis: int64(m.From)},
					{XAxis: int64(m.To)},
				}
			}
			seriesOpts = append(seriesOpts,
				charts.WithMarkAreaData(areas...),
				charts.WithMarkAreaStyleOpts(opts.MarkAreaStyle{ItemStyle: &opts.ItemStyle{Color: "rgba(200,200,200,0.3)"}}),
			)
		}

		line.AddSeries(ms.Label, data, seriesOpts...)
	}

	if js := s.labelScript(); js != "" {
		line.AddJSFuncStrs(types.FuncStr(js))
	}
	if js := s.refreshScript(); js != "" {
		line.AddJSFuncStrs(types.FuncStr(js))
	}
	return line
}

// labelGraphic is an echarts graphic text element.
type labelGraphic struct {
	Type     string     `json:"type"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Rotation float64    `json:"rotation"`
	Style    labelStyle `json:"style"`
}

type labelStyle struct {
	Text          string `json:"text"`
	FontSize      int    `json:"fontSize"`
	VerticalAlign string `json:"verticalAlign"`
}

// labelScript draws the placed axis labels as text rotated a quarter turn
// counterclockwise. The rotation origin is the bottom-left corner of the
// rotated box, so its top-left lands on the placement.
func (s *EChartSurface) labelScript() string {
	var elems []labelGraphic
	for _, axis := range []Axis{PrimaryAxis, SecondaryAxis} {
		l, ok := s.labels[axis]
		if !ok || l.Text == "" {
			continue
		}
		w, _ := s.LabelSize(l.Text)
		elems = append(elems, labelGraphic{
			Type:     "text",
			X:        l.X,
			Y:        l.Y + w,
			Rotation: math.Pi / 2,
			Style:    labelStyle{Text: l.Text, FontSize: 12, VerticalAlign: "top"},
		})
	}
	if len(elems) == 0 {
		return ""
	}
	b, err := json.Marshal(elems)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%%MY_ECHARTS%%.setOption({graphic: %s});", b)
}

func (s *EChartSurface) refreshScript() string {
	if s.refreshPath == "" || s.refreshEvery <= 0 {
		return ""
	}
	path, err := json.Marshal(s.refreshPath)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`setInterval(function () {
fetch(%s).then(function (r) { return r.ok ? r.json() : null; }).then(function (d) {
if (!d || !d.series) { return; }
%%MY_ECHARTS%%.setOption({series: d.series.map(function (s) {
return {name: s.label, data: s.points.map(function (p) { return [Math.round(p.timestamp * 1000), p.value]; })};
})});
}).catch(function () {});
}, %d);`, path, s.refreshEvery.Milliseconds())
}

// legendPosition maps a compass position such as "sw" to legend anchors.
func legendPosition(pos string) opts.Legend {
	l := opts.Legend{Show: opts.Bool(true)}
	for _, c := range pos {
		switch c {
		case 'n':
			l.Top = "top"
		case 's':
			l.Bottom = "0"
		case 'e':
			l.Right = "0"
		case 'w':
			l.Left = "left"
		}
	}
	return l
}
