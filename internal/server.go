package jobtop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const (
	chartWidth  = 1200
	chartHeight = 500
)

// Snapshot keeps the job and debug objects of the last successful poll
// for concurrent readers.
type Snapshot struct {
	mu    sync.RWMutex
	job   *JobInfo
	debug *DebugInfo
}

func (s *Snapshot) SetJob(info JobInfo) {
	s.mu.Lock()
	s.job = &info
	s.mu.Unlock()
}

func (s *Snapshot) Replace(info DebugInfo) {
	s.mu.Lock()
	s.debug = &info
	s.mu.Unlock()
}

func (s *Snapshot) Job() (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.job == nil {
		return JobInfo{}, false
	}
	return *s.job, true
}

func (s *Snapshot) Debug() (DebugInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.debug == nil {
		return DebugInfo{}, false
	}
	return *s.debug, true
}

// Server polls the job in the background and serves the chart as an HTML
// page together with the data behind it.
type Server struct {
	cfg      Config
	surface  *EChartSurface
	poller   *Poller
	reporter *ErrorReporter
	snapshot *Snapshot
	metrics  *Metrics
}

func NewServer(cfg Config, fetcher Fetcher) *Server {
	s := &Server{
		cfg:      cfg,
		surface:  NewEChartSurface(cfg.Title(), chartWidth, chartHeight).WithRefresh("series", cfg.Interval),
		reporter: NewErrorReporter(),
		snapshot: &Snapshot{},
		metrics:  NewMetrics(),
	}

	adapter := NewChartAdapter(s.surface, NewChartConfiguration(cfg.Schema, cfg.Weekends))
	adapter.ObserveRender(s.metrics.ObserveRender)

	sinks := Sinks{Chart: adapter, Job: s.snapshot, Errors: s.reporter}
	if cfg.Debug {
		sinks.Debug = s.snapshot
	}
	s.poller = NewPoller(cfg, fetcher, sinks).WithMetrics(s.metrics)
	return s
}

// Router wires the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.chartHandler).Methods(http.MethodGet)
	r.HandleFunc("/series", s.seriesHandler).Methods(http.MethodGet)
	r.HandleFunc("/errors", s.errorsHandler).Methods(http.MethodGet)
	r.HandleFunc("/debug", s.debugHandler).Methods(http.MethodGet)
	r.HandleFunc("/period/{period}", s.periodHandler).Methods(http.MethodPost)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return r
}

// Handler is the router behind an access log.
func (s *Server) Handler() http.Handler {
	return handlers.LoggingHandler(log.Writer(), s.Router())
}

// Poll runs the poll loop until ctx is done.
func (s *Server) Poll(ctx context.Context) error {
	return s.poller.Run(ctx)
}

// ListenAndServe polls and serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.Poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("poll loop stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("serving %s on %s", s.cfg.Title(), addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %s: %w", addr, err)
	}
	return nil
}

func (s *Server) chartHandler(w http.ResponseWriter, r *http.Request) {
	html := s.surface.HTML()
	if html == nil {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

type seriesResponse struct {
	Cluster string         `json:"cluster"`
	Job     string         `json:"job"`
	Period  string         `json:"period"`
	State   string         `json:"state"`
	Info    *JobInfo       `json:"info,omitempty"`
	Series  []MetricSeries `json:"series"`
}

func (s *Server) seriesHandler(w http.ResponseWriter, r *http.Request) {
	resp := seriesResponse{
		Cluster: s.cfg.Cluster,
		Job:     s.cfg.Job,
		Period:  s.poller.Period(),
		State:   s.poller.State().String(),
		Series:  s.surface.Series(),
	}
	if info, ok := s.snapshot.Job(); ok {
		resp.Info = &info
	}
	if resp.Series == nil {
		resp.Series = []MetricSeries{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) errorsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reporter.Entries())
}

func (s *Server) debugHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Debug {
		writeError(w, http.StatusNotFound, "debug disabled")
		return
	}
	info, _ := s.snapshot.Debug()
	if info.Metadata == nil {
		info.Metadata = map[string]string{}
	}
	if info.Timers == nil {
		info.Timers = map[string]float64{}
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) periodHandler(w http.ResponseWriter, r *http.Request) {
	period := mux.Vars(r)["period"]
	if !ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid period %q", period))
		return
	}
	s.poller.SetPeriod(period)
	writeJSON(w, http.StatusAccepted, map[string]string{"period": period})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

// writeError answers with the same {"error": msg} shape the metrics API
// uses.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
