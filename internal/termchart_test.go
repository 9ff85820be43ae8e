package jobtop

import (
	"reflect"
	"strings"
	"testing"

	ui "github.com/gizak/termui/v3"
	"github.com/prometheus/common/model"
)

func termSeries(t *testing.T) []MetricSeries {
	t.Helper()
	schema, _ := LookupSchema("cpu4")
	batch := RawBatch{}
	for i := 0; i < 30; i++ {
		batch = append(batch, RawSample{
			Timestamp: model.Time(1_700_000_000_000 + int64(i)*60_000),
			Values:    []float64{10, 5, 60, 25, float64(i) * MiB},
		})
	}
	series, err := Normalize(batch, schema, Visibility{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return series
}

func newTermAdapter(t *testing.T, w, h int) (*TermSurface, *ChartAdapter) {
	t.Helper()
	schema, _ := LookupSchema("cpu4")
	surface := NewTermSurface(w, h)
	return surface, NewChartAdapter(surface, NewChartConfiguration(schema, true))
}

func TestTermSurfaceDraw(t *testing.T) {
	surface, adapter := newTermAdapter(t, 100, 30)
	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}
	out := surface.View()
	lines := strings.Split(out, "\n")
	if len(lines) != 30 {
		t.Fatalf("frame has %d lines, want 30", len(lines))
	}
	for _, want := range []string{"cpu user", "memory pss", "100.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q", want)
		}
	}
	// the vertical primary label starts with "C" in column 0
	label := adapter.Labels()[0]
	if r := []rune(lines[label.Y]); len(r) == 0 || r[0] != 'C' {
		t.Errorf("line %d does not start with the primary label: %q", label.Y, lines[label.Y])
	}
	if !strings.ContainsFunc(out, func(r rune) bool { return r > 0x2800 && r <= 0x28FF }) {
		t.Error("no braille drawn")
	}
}

func TestTermSurfaceTooSmall(t *testing.T) {
	surface, adapter := newTermAdapter(t, 10, 3)
	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(surface.View(), "too small") {
		t.Errorf("unexpected frame %q", surface.View())
	}
}

func TestTermSurfaceEmptyData(t *testing.T) {
	surface, adapter := newTermAdapter(t, 80, 20)
	schema, _ := LookupSchema("cpu4")
	series, _ := Normalize(nil, schema, Visibility{}, 0)
	if err := adapter.Render(series); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(surface.View(), "waiting for data") {
		t.Error("empty batch should show the waiting message")
	}
}

func TestTermSurfaceSinglePoint(t *testing.T) {
	surface, adapter := newTermAdapter(t, 80, 20)
	series := termSeries(t)
	for i := range series {
		series[i].Points = series[i].Points[:1]
	}
	if err := adapter.Render(series); err != nil {
		t.Fatal(err)
	}
	if surface.View() == "" {
		t.Error("single-point batch should still draw")
	}
}

func TestTermSurfaceViewerStateSurvivesUpdate(t *testing.T) {
	surface, adapter := newTermAdapter(t, 100, 30)
	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}

	surface.NextSeries()
	surface.ToggleSeries()
	hiddenName := termSeries(t)[1].Name
	surface.ZoomIn()
	surface.PanLeft()
	from, to, _ := surface.ViewRange()

	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}
	if !surface.Hidden(hiddenName) {
		t.Errorf("%s should stay hidden after update", hiddenName)
	}
	f2, t2, _ := surface.ViewRange()
	if f2 != from || t2 != to {
		t.Errorf("view range changed on update: %v..%v -> %v..%v", from, to, f2, t2)
	}

	surface.ResetView()
	full0, full1, _ := Bounds(termSeries(t))
	if f, l, _ := surface.ViewRange(); f != full0 || l != full1 {
		t.Errorf("ResetView range %v..%v, want %v..%v", f, l, full0, full1)
	}
}

func TestTermSurfacePanClamps(t *testing.T) {
	surface, adapter := newTermAdapter(t, 100, 30)
	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		surface.PanLeft()
	}
	from0, _, _ := Bounds(termSeries(t))
	if from, _, _ := surface.ViewRange(); from != from0 {
		t.Errorf("unzoomed pan should not move: from=%v", from)
	}
	surface.ZoomIn()
	for i := 0; i < 10; i++ {
		surface.PanLeft()
	}
	if from, _, _ := surface.ViewRange(); from < from0 {
		t.Errorf("pan moved before the first sample: %v < %v", from, from0)
	}
}

func TestResample(t *testing.T) {
	points := []Point{{Timestamp: 0, Value: 1}, {Timestamp: 10, Value: 2}, {Timestamp: 20, Value: 3}}
	got := resample(points, 0, 20, 5)
	want := []float64{1, 1, 2, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("resample = %v, want %v", got, want)
	}
	if got := resample(nil, 0, 20, 1); len(got) != 2 {
		t.Errorf("resample keeps at least two columns, got %d", len(got))
	}
}

func TestXterm256(t *testing.T) {
	tests := map[string]ui.Color{
		"#000000": 16,
		"#ffffff": 231,
		"#ff0000": 196,
		"#cc0000": 160,
		"bogus":   ui.ColorWhite,
	}
	for hex, want := range tests {
		if got := xterm256(hex); got != want {
			t.Errorf("xterm256(%s) = %d, want %d", hex, got, want)
		}
	}
}
