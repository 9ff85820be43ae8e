package jobtop

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestEChartSurfaceRender(t *testing.T) {
	schema, _ := LookupSchema("cpu4")
	surface := NewEChartSurface("HPC metrics: cluster c1 job 42", 1200, 500)
	adapter := NewChartAdapter(surface, NewChartConfiguration(schema, true))

	if surface.HTML() != nil {
		t.Fatal("no html before the first draw")
	}
	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}

	html := string(surface.HTML())
	for _, want := range []string{
		"HPC metrics: cluster c1 job 42",
		"cpu user",
		"memory pss",
		"Memory consumption (MiB)",
		`"stack":"cpu"`,
		`"type":"time"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}

	labels := surface.Labels()
	if labels[SecondaryAxis].X != 1200-glyphHeight {
		t.Errorf("secondary label x = %d", labels[SecondaryAxis].X)
	}

	// both placements are drawn on the page, rotated about their lower corner
	for _, axis := range []Axis{PrimaryAxis, SecondaryAxis} {
		l := labels[axis]
		w, _ := surface.LabelSize(l.Text)
		want := fmt.Sprintf(`{"type":"text","x":%d,"y":%d,"rotation":1.5707963267948966,"style":{"text":%q`, l.X, l.Y+w, l.Text)
		if !strings.Contains(html, want) {
			t.Errorf("html missing label element %s", want)
		}
	}
	if strings.Contains(html, "setInterval") {
		t.Error("page refreshes without a refresh path")
	}
}

func TestEChartSurfaceRefresh(t *testing.T) {
	schema, _ := LookupSchema("cpu4")
	surface := NewEChartSurface("t", 800, 400).WithRefresh("series", 10*time.Second)
	adapter := NewChartAdapter(surface, NewChartConfiguration(schema, false))
	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}
	html := string(surface.HTML())
	for _, want := range []string{`fetch("series")`, "}, 10000);", "name: s.label"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(html, "%MY_ECHARTS%") {
		t.Error("chart instance placeholder not substituted")
	}
}

func TestEChartSurfaceUpdateReplacesSeries(t *testing.T) {
	schema, _ := LookupSchema("cpu4")
	surface := NewEChartSurface("t", 800, 400)
	adapter := NewChartAdapter(surface, NewChartConfiguration(schema, false))
	if err := adapter.Render(termSeries(t)); err != nil {
		t.Fatal(err)
	}
	first := string(surface.HTML())

	series := termSeries(t)[:1]
	if err := adapter.Render(series); err != nil {
		t.Fatal(err)
	}
	if got := surface.Series(); len(got) != 1 {
		t.Errorf("surface holds %d series, want 1", len(got))
	}
	if html := string(surface.HTML()); html == first || strings.Contains(html, "memory pss") {
		t.Error("update did not replace the chart data")
	}
}

func TestLegendPosition(t *testing.T) {
	l := legendPosition("sw")
	if l.Bottom != "0" || l.Left != "left" || l.Top != "" || l.Right != "" {
		t.Errorf("legendPosition(sw) = %+v", l)
	}
}
