package jobtop

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

func TestFetchStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&NetworkError{Status: 500, Message: "db down"}, "500"},
		{&NetworkError{Message: "connection refused"}, "transport"},
		{&PayloadParseError{Status: 200, Err: errors.New("eof")}, "parse"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := fetchStatus(tt.err); got != tt.want {
			t.Errorf("fetchStatus(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestMetricsStateIsExclusive(t *testing.T) {
	m := NewMetrics()
	m.setState(StateScheduled)

	expected := `
# HELP jobtop_poll_state 1 for the current poll loop state, 0 otherwise.
# TYPE jobtop_poll_state gauge
jobtop_poll_state{state="fetching"} 0
jobtop_poll_state{state="halted"} 0
jobtop_poll_state{state="idle"} 0
jobtop_poll_state{state="scheduled"} 1
`
	if err := testutil.CollectAndCompare(m.state, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.observeFetch("6h", 120*time.Millisecond, nil)
	m.observeFetch("6h", 80*time.Millisecond, &NetworkError{Status: 404, Message: "job not found"})
	m.ObserveRender(2 * time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	fetches, ok := families["jobtop_fetches_total"]
	if !ok {
		t.Fatal("jobtop_fetches_total not exposed")
	}
	byStatus := map[string]float64{}
	for _, metric := range fetches.GetMetric() {
		byStatus[label(metric, "status")] = metric.GetCounter().GetValue()
		if p := label(metric, "period"); p != "6h" {
			t.Errorf("period label = %q", p)
		}
	}
	if byStatus["ok"] != 1 || byStatus["404"] != 1 {
		t.Errorf("fetches by status = %v", byStatus)
	}

	hist := families["jobtop_fetch_duration_seconds"].GetMetric()[0].GetHistogram()
	if hist.GetSampleCount() != 2 {
		t.Errorf("fetch duration count = %d", hist.GetSampleCount())
	}
	if got := families["jobtop_render_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("render duration count = %d", got)
	}
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
