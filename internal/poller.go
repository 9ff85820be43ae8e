package jobtop

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"
)

// PollState is the phase of the poll loop.
type PollState int32

const (
	StateIdle PollState = iota
	StateFetching
	StateScheduled
	StateHalted
)

func (s PollState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateScheduled:
		return "scheduled"
	case StateHalted:
		return "halted"
	}
	return "unknown"
}

// ChartSink receives freshly normalized series.
type ChartSink interface {
	Render(series []MetricSeries) error
}

type JobSink interface {
	SetJob(info JobInfo)
}

type DebugSink interface {
	Replace(info DebugInfo)
}

type ErrorSink interface {
	Report(err error)
}

// Sinks are the consumers of each poll. Job and Debug may be nil.
type Sinks struct {
	Chart  ChartSink
	Job    JobSink
	Debug  DebugSink
	Errors ErrorSink
}

type fetchResult struct {
	gen    uint64
	period string
	resp   *MetricsResponse
	err    error
	took   time.Duration
}

// Poller drives fetch, normalize and render on a fixed interval. All of
// its mutable state belongs to the Run goroutine; other goroutines talk
// to it through SetPeriod and read it through the atomic accessors.
//
// At most one fetch is in flight and at most one timer is pending. A
// period change during a fetch cancels it, waits for it to return, drops
// its result and only then issues the fetch for the new period. A failed
// poll is reported once and the loop halts until the next SetPeriod.
type Poller struct {
	fetcher  Fetcher
	sinks    Sinks
	schema   Schema
	vis      Visibility
	offset   time.Duration
	interval time.Duration
	metrics  *Metrics

	periodCh chan string
	state    atomic.Int32
	period   atomic.Value
	inFlight atomic.Int32
}

func NewPoller(cfg Config, fetcher Fetcher, sinks Sinks) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		sinks:    sinks,
		schema:   cfg.Schema,
		vis:      cfg.Visibility,
		offset:   LocalUTCOffset(),
		interval: cfg.Interval,
		periodCh: make(chan string, 1),
	}
	if p.interval <= 0 {
		p.interval = UpdateDuration()
	}
	p.period.Store(cfg.Period)
	return p
}

// WithMetrics records poll metrics into m.
func (p *Poller) WithMetrics(m *Metrics) *Poller {
	p.metrics = m
	return p
}

// WithOffset overrides the timezone shift applied to timestamps.
func (p *Poller) WithOffset(offset time.Duration) *Poller {
	p.offset = offset
	return p
}

func (p *Poller) State() PollState { return PollState(p.state.Load()) }

func (p *Poller) Period() string { return p.period.Load().(string) }

// InFlight is the number of fetches currently running.
func (p *Poller) InFlight() int { return int(p.inFlight.Load()) }

// SetPeriod restarts the loop from Idle for period. It never blocks: if
// a previous request is still queued it is replaced.
func (p *Poller) SetPeriod(period string) {
	for {
		select {
		case p.periodCh <- period:
			return
		default:
		}
		select {
		case <-p.periodCh:
		default:
		}
	}
}

func (p *Poller) setState(s PollState) {
	p.state.Store(int32(s))
	if p.metrics != nil {
		p.metrics.setState(s)
	}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	var (
		gen      uint64
		timer    *time.Timer
		timerC   <-chan time.Time
		fetching bool
		restart  bool
		cancel   context.CancelFunc = func() {}
		results                     = make(chan fetchResult, 1)
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	start := func() {
		stopTimer()
		gen++
		var fctx context.Context
		fctx, cancel = context.WithCancel(ctx)
		fetching = true
		p.setState(StateFetching)

		period := p.Period()
		p.inFlight.Add(1)
		go func(tag uint64) {
			defer p.inFlight.Add(-1)
			begin := time.Now()
			resp, err := p.fetcher.Fetch(fctx, period)
			results <- fetchResult{gen: tag, period: period, resp: resp, err: err, took: time.Since(begin)}
		}(gen)
	}

	p.setState(StateIdle)
	start()

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			cancel()
			return ctx.Err()

		case period := <-p.periodCh:
			log.Printf("period changed to %s", period)
			p.period.Store(period)
			stopTimer()
			gen++
			p.setState(StateIdle)
			if fetching {
				cancel()
				restart = true
				continue
			}
			start()

		case r := <-results:
			fetching = false
			cancel()
			if restart || r.gen != gen {
				restart = false
				if p.metrics != nil {
					p.metrics.staleDiscarded.Inc()
				}
				log.Printf("discarding stale %s response", r.period)
				start()
				continue
			}
			if p.handle(r) {
				timer = time.NewTimer(p.interval)
				timerC = timer.C
				p.setState(StateScheduled)
			} else {
				p.setState(StateHalted)
			}

		case <-timerC:
			timer, timerC = nil, nil
			start()
		}
	}
}

// handle feeds one fetch result to the sinks and reports whether the loop
// should keep going.
func (p *Poller) handle(r fetchResult) bool {
	if p.metrics != nil {
		p.metrics.observeFetch(r.period, r.took, r.err)
	}
	if r.err != nil {
		p.fail(r.err)
		return false
	}

	series, err := Normalize(r.resp.Data, p.schema, p.vis, p.offset)
	if err != nil {
		p.fail(err)
		return false
	}
	if err := p.sinks.Chart.Render(series); err != nil {
		p.fail(err)
		return false
	}
	if r.resp.Job != nil && p.sinks.Job != nil {
		p.sinks.Job.SetJob(*r.resp.Job)
	}
	if r.resp.Debug != nil && p.sinks.Debug != nil {
		p.sinks.Debug.Replace(*r.resp.Debug)
	}
	return true
}

func (p *Poller) fail(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Printf("poll failed, halting: %v", err)
	if p.metrics != nil {
		p.metrics.failures.Inc()
	}
	p.sinks.Errors.Report(err)
}
