package jobtop

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments the poll loop and the chart.
type Metrics struct {
	registry       *prometheus.Registry
	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	failures       prometheus.Counter
	staleDiscarded prometheus.Counter
	renderDuration prometheus.Histogram
	state          *prometheus.GaugeVec
}

// NewMetrics registers the collectors on a registry of their own.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtop_fetches_total",
			Help: "Metrics API requests by period and outcome.",
		}, []string{"period", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobtop_fetch_duration_seconds",
			Help:    "Metrics API request latency by period.",
			Buckets: prometheus.DefBuckets,
		}, []string{"period"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtop_poll_failures_total",
			Help: "Polls that halted the loop.",
		}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtop_stale_responses_total",
			Help: "Responses dropped because the period changed while in flight.",
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobtop_render_duration_seconds",
			Help:    "Time spent drawing the chart.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jobtop_poll_state",
			Help: "1 for the current poll loop state, 0 otherwise.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.failures,
		m.staleDiscarded,
		m.renderDuration,
		m.state,
	)
	m.setState(StateIdle)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRender is a ChartAdapter render callback.
func (m *Metrics) ObserveRender(d time.Duration) {
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) observeFetch(period string, took time.Duration, err error) {
	m.fetchDuration.WithLabelValues(period).Observe(took.Seconds())
	m.fetches.WithLabelValues(period, fetchStatus(err)).Inc()
}

func (m *Metrics) setState(s PollState) {
	for _, st := range []PollState{StateIdle, StateFetching, StateScheduled, StateHalted} {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.WithLabelValues(st.String()).Set(v)
	}
}

// fetchStatus labels a fetch outcome: "ok", the HTTP status, or the
// failure class.
func fetchStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.Status == 0 {
			return "transport"
		}
		return strconv.Itoa(netErr.Status)
	}
	var parseErr *PayloadParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	return "error"
}
