package jobtop

import (
	"fmt"
	"image"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/prometheus/common/model"
)

const (
	tickWidth   = 7
	maxZoom     = 6
	weekendBg   = ui.Color(236)
	axisColor   = ui.Color(240)
	hiddenColor = ui.Color(238)
)

// TermSurface draws the chart as braille lines into a termui buffer and
// turns the buffer into a styled string for bubbletea.
//
// Viewer state (hidden series, legend cursor, zoom and pan) lives here and
// survives SetData, so a refresh never resets what the user is looking at.
type TermSurface struct {
	width, height int
	config        ChartConfiguration
	created       bool
	series        []MetricSeries
	labels        map[Axis]LabelPlacement

	hidden    map[string]bool
	cursor    int
	zoomLevel int
	pan       float64

	frame string
}

func NewTermSurface(width, height int) *TermSurface {
	return &TermSurface{
		width:  width,
		height: height,
		labels: make(map[Axis]LabelPlacement),
		hidden: make(map[string]bool),
	}
}

func (s *TermSurface) Create(cfg ChartConfiguration, series []MetricSeries) error {
	if s.created {
		return fmt.Errorf("terminal chart already created")
	}
	s.config = cfg
	s.series = series
	s.created = true
	return nil
}

func (s *TermSurface) SetData(series []MetricSeries) {
	s.series = series
	if s.cursor >= len(series) {
		s.cursor = max(len(series)-1, 0)
	}
}

func (s *TermSurface) LabelSize(text string) (int, int) {
	return lipgloss.Width(text), 1
}

func (s *TermSurface) PlaceLabel(axis Axis, text string, x, y int) {
	s.labels[axis] = LabelPlacement{Text: text, X: x, Y: y}
}

func (s *TermSurface) Size() (int, int) { return s.width, s.height }

// SetSize changes the frame size. Call ChartAdapter.Resize afterwards so
// labels follow.
func (s *TermSurface) SetSize(width, height int) {
	s.width, s.height = width, height
}

// View returns the last drawn frame.
func (s *TermSurface) View() string { return s.frame }

// ZoomIn halves the visible time window.
func (s *TermSurface) ZoomIn() {
	s.zoomLevel = min(s.zoomLevel+1, maxZoom)
	s.clampPan()
}

func (s *TermSurface) ZoomOut() {
	s.zoomLevel = max(s.zoomLevel-1, 0)
	s.clampPan()
}

// PanLeft moves the window a quarter of its width back in time.
func (s *TermSurface) PanLeft() {
	s.pan += s.window() / 4
	s.clampPan()
}

func (s *TermSurface) PanRight() {
	s.pan -= s.window() / 4
	s.clampPan()
}

// ResetView returns to the full, latest window.
func (s *TermSurface) ResetView() {
	s.zoomLevel = 0
	s.pan = 0
}

func (s *TermSurface) window() float64 {
	return 1 / math.Pow(2, float64(s.zoomLevel))
}

func (s *TermSurface) clampPan() {
	s.pan = math.Min(math.Max(s.pan, 0), 1-s.window())
}

// NextSeries and PrevSeries move the legend cursor.
func (s *TermSurface) NextSeries() {
	if n := len(s.series); n > 0 {
		s.cursor = (s.cursor + 1) % n
	}
}

func (s *TermSurface) PrevSeries() {
	if n := len(s.series); n > 0 {
		s.cursor = (s.cursor - 1 + n) % n
	}
}

// ToggleSeries shows or hides the series under the legend cursor.
func (s *TermSurface) ToggleSeries() {
	if s.cursor < len(s.series) {
		name := s.series[s.cursor].Name
		s.hidden[name] = !s.hidden[name]
	}
}

func (s *TermSurface) Hidden(name string) bool { return s.hidden[name] }

// ViewRange is the visible time window for the current data.
func (s *TermSurface) ViewRange() (from, to model.Time, ok bool) {
	from, to, ok = Bounds(s.series)
	if !ok {
		return 0, 0, false
	}
	span := float64(to - from)
	viewTo := to - model.Time(s.pan*span)
	viewFrom := viewTo - model.Time(s.window()*span)
	return viewFrom, viewTo, true
}

// plotLine is one line handed to termui, already in primary-axis units.
type plotLine struct {
	color  ui.Color
	values []float64
}

func (s *TermSurface) Draw() {
	if s.width < 4*tickWidth || s.height < 6 {
		s.frame = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("chart area too small")
		return
	}

	buf := ui.NewBuffer(image.Rect(0, 0, s.width, s.height))
	plotArea := image.Rect(1+tickWidth, 0, s.width-1-tickWidth, s.height-2)

	from, to, ok := s.ViewRange()
	if !ok {
		buf.SetString("waiting for data...", ui.NewStyle(axisColor), image.Pt(plotArea.Min.X, plotArea.Dy()/2))
	} else {
		lines, primaryMax, secondaryMax := s.buildLines(from, to, plotArea.Dx())
		if len(lines) > 0 {
			plot := widgets.NewPlot()
			plot.Border = false
			plot.ShowAxes = false
			plot.Marker = widgets.MarkerBraille
			plot.PlotType = widgets.LineChart
			plot.MaxVal = primaryMax
			for _, l := range lines {
				plot.Data = append(plot.Data, l.values)
				plot.LineColors = append(plot.LineColors, l.color)
			}
			// Inner is inset by one cell on every side
			plot.SetRect(plotArea.Min.X-1, plotArea.Min.Y-1, plotArea.Max.X+1, plotArea.Max.Y+1)
			plot.Draw(buf)
		}
		s.drawMarkings(buf, plotArea, from, to)
		s.drawTicks(buf, plotArea, primaryMax, secondaryMax)
		s.drawTimes(buf, plotArea, from, to)
	}

	s.drawLabels(buf)
	s.drawLegend(buf)
	s.frame = bufferString(buf)
}

// buildLines stacks, scales and resamples the visible series to one value
// per plot column. Secondary-axis series are rescaled onto the primary
// range so a single canvas carries both axes.
func (s *TermSurface) buildLines(from, to model.Time, columns int) ([]plotLine, float64, float64) {
	type raw struct {
		series MetricSeries
		values []float64
	}
	var primary, secondary []raw
	var stack []float64

	for _, ms := range s.series {
		if s.hidden[ms.Name] {
			continue
		}
		values := resample(ms.Points, from, to, columns)
		if ms.Stack {
			if stack == nil {
				stack = make([]float64, columns)
			}
			for i, v := range values {
				stack[i] += v
				values[i] = stack[i]
			}
		}
		if ms.Axis == SecondaryAxis {
			secondary = append(secondary, raw{ms, values})
		} else {
			primary = append(primary, raw{ms, values})
		}
	}

	primaryMax := s.config.YAxes[0].Max
	if primaryMax <= 0 {
		primaryMax = peak(primary, func(r raw) []float64 { return r.values })
	}
	secondaryMax := s.config.YAxes[1].Max
	if secondaryMax <= 0 {
		secondaryMax = peak(secondary, func(r raw) []float64 { return r.values })
	}

	lines := make([]plotLine, 0, len(primary)+len(secondary))
	for _, r := range primary {
		lines = append(lines, plotLine{color: xterm256(r.series.Color), values: clip(r.values, primaryMax)})
	}
	ratio := primaryMax / secondaryMax
	for _, r := range secondary {
		scaled := make([]float64, len(r.values))
		for i, v := range r.values {
			scaled[i] = v * ratio
		}
		lines = append(lines, plotLine{color: xterm256(r.series.Color), values: clip(scaled, primaryMax)})
	}
	return lines, primaryMax, secondaryMax
}

func peak[T any](items []T, values func(T) []float64) float64 {
	var m float64
	for _, it := range items {
		for _, v := range values(it) {
			m = math.Max(m, v)
		}
	}
	if m <= 0 {
		return 1
	}
	return m
}

func clip(values []float64, limit float64) []float64 {
	for i, v := range values {
		values[i] = math.Min(math.Max(v, 0), limit)
	}
	return values
}

// resample holds the last point at or before each column's time. Columns
// before the first point take its value. It always returns at least two
// values, which the braille line renderer needs.
func resample(points []Point, from, to model.Time, columns int) []float64 {
	columns = max(columns, 2)
	out := make([]float64, columns)
	if len(points) == 0 {
		return out
	}
	for c := range out {
		t := from + model.Time(float64(to-from)*float64(c)/float64(columns-1))
		i := sort.Search(len(points), func(i int) bool { return points[i].Timestamp > t })
		if i == 0 {
			out[c] = points[0].Value
		} else {
			out[c] = points[i-1].Value
		}
	}
	return out
}

func (s *TermSurface) drawMarkings(buf *ui.Buffer, area image.Rectangle, from, to model.Time) {
	if s.config.Markings == nil || to <= from {
		return
	}
	span := float64(to - from)
	for _, m := range s.config.Markings(from, to) {
		x0 := area.Min.X + int(float64(m.From-from)/span*float64(area.Dx()-1))
		x1 := area.Min.X + int(math.Ceil(float64(m.To-from)/span*float64(area.Dx()-1)))
		for x := x0; x <= x1 && x < area.Max.X; x++ {
			for y := area.Min.Y; y < area.Max.Y; y++ {
				p := image.Pt(x, y)
				cell := buf.GetCell(p)
				cell.Style.Bg = weekendBg
				buf.SetCell(cell, p)
			}
		}
	}
}

func (s *TermSurface) drawTicks(buf *ui.Buffer, area image.Rectangle, primaryMax, secondaryMax float64) {
	style := ui.NewStyle(axisColor)
	rows := []int{area.Min.Y, area.Min.Y + (area.Dy()-1)/2, area.Max.Y - 1}
	fractions := []float64{1, 0.5, 0}
	for i, y := range rows {
		left := fmt.Sprintf("%*s", tickWidth-1, formatTick(primaryMax*fractions[i]))
		buf.SetString(left, style, image.Pt(area.Min.X-tickWidth, y))
		if s.hasVisible(SecondaryAxis) {
			buf.SetString(formatTick(secondaryMax*fractions[i]), style, image.Pt(area.Max.X+1, y))
		}
	}
}

func formatTick(v float64) string {
	switch {
	case v >= 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case v >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

func (s *TermSurface) drawTimes(buf *ui.Buffer, area image.Rectangle, from, to model.Time) {
	layout := "15:04"
	if to.Sub(from).Hours() > 12 {
		layout = "Mon 15:04"
	}
	style := ui.NewStyle(axisColor)
	y := area.Max.Y
	first := from.Time().UTC().Format(layout)
	mid := (from + (to-from)/2).Time().UTC().Format(layout)
	last := to.Time().UTC().Format(layout)

	buf.SetString(first, style, image.Pt(area.Min.X, y))
	buf.SetString(mid, style, image.Pt(area.Min.X+area.Dx()/2-len(mid)/2, y))
	buf.SetString(last, style, image.Pt(area.Max.X-len(last), y))
}

func (s *TermSurface) drawLabels(buf *ui.Buffer) {
	style := ui.NewStyle(ui.ColorWhite)
	for _, l := range s.labels {
		for i, r := range []rune(l.Text) {
			y := l.Y + i
			if y >= s.height-2 {
				break
			}
			buf.SetCell(ui.NewCell(r, style), image.Pt(l.X, y))
		}
	}
}

func (s *TermSurface) drawLegend(buf *ui.Buffer) {
	x := 1 + tickWidth
	y := s.height - 1
	for i, ms := range s.series {
		marker := "■ "
		style := ui.NewStyle(xterm256(ms.Color))
		if s.hidden[ms.Name] {
			marker = "□ "
			style = ui.NewStyle(hiddenColor)
		}
		if i == s.cursor {
			style.Modifier = ui.ModifierUnderline
		}
		entry := marker + ms.Label
		if x+len([]rune(entry)) >= s.width {
			break
		}
		buf.SetString(entry, style, image.Pt(x, y))
		x += len([]rune(entry)) + 2
	}
}

func (s *TermSurface) hasVisible(axis Axis) bool {
	for _, ms := range s.series {
		if ms.Axis == axis && !s.hidden[ms.Name] {
			return true
		}
	}
	return false
}

// bufferString converts the buffer to lines of styled text, batching runs
// of cells that share a style.
func bufferString(buf *ui.Buffer) string {
	var b strings.Builder
	for y := buf.Min.Y; y < buf.Max.Y; y++ {
		var run strings.Builder
		runStyle := ui.StyleClear
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(cellStyle(runStyle).Render(run.String()))
				run.Reset()
			}
		}
		for x := buf.Min.X; x < buf.Max.X; x++ {
			cell := buf.GetCell(image.Pt(x, y))
			if cell.Rune == 0 {
				cell.Rune = ' '
			}
			if cell.Style != runStyle {
				flush()
				runStyle = cell.Style
			}
			run.WriteRune(cell.Rune)
		}
		flush()
		if y < buf.Max.Y-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func cellStyle(st ui.Style) lipgloss.Style {
	style := lipgloss.NewStyle()
	if st.Fg != ui.ColorClear {
		style = style.Foreground(lipgloss.Color(strconv.Itoa(int(st.Fg))))
	}
	if st.Bg != ui.ColorClear {
		style = style.Background(lipgloss.Color(strconv.Itoa(int(st.Bg))))
	}
	if st.Modifier&ui.ModifierBold != 0 {
		style = style.Bold(true)
	}
	if st.Modifier&ui.ModifierUnderline != 0 {
		style = style.Underline(true)
	}
	if st.Modifier&ui.ModifierReverse != 0 {
		style = style.Reverse(true)
	}
	return style
}

var cubeLevels = [6]int{0, 95, 135, 175, 215, 255}

// xterm256 maps "#rrggbb" to the nearest colour of the 6x6x6 cube.
// Anything unparsable is white.
func xterm256(hex string) ui.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return ui.ColorWhite
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ui.ColorWhite
	}
	nearest := func(c int) int {
		best := 0
		for i, l := range cubeLevels {
			if abs(l-c) < abs(cubeLevels[best]-c) {
				best = i
			}
		}
		return best
	}
	r := nearest(int(v >> 16 & 0xff))
	g := nearest(int(v >> 8 & 0xff))
	b := nearest(int(v & 0xff))
	return ui.Color(16 + 36*r + 6*g + b)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
