package jobtop

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the immutable session built once at startup. It replaces the
// page-wide globals: every component receives what it needs from here.
type Config struct {
	APIBase    *url.URL
	Cluster    string
	Job        string
	Period     string
	Schema     Schema
	Debug      bool
	Weekends   bool
	Visibility Visibility
	Interval   time.Duration
	Timeout    time.Duration
	// Ignored lists page parameters jobtop does not read, in query order.
	Ignored []string
}

var pageParameters = map[string]bool{
	"cluster": true, "job": true, "period": true, "schema": true,
	"debug": true, "hide_pss": true, "hide_rss": true,
}

// LoadConfig merges viper settings with the query parameters of page. A
// parameter present in the page query wins over the viper value.
func LoadConfig(v *viper.Viper, page string) (Config, error) {
	q := ParseQuery(page)

	pick := func(key string) string {
		if p, ok := q.Get(key); ok && !p.Flag {
			return p.Value
		}
		return v.GetString(key)
	}
	flag := func(key string) bool {
		if q.Has(key) {
			return q.Bool(key)
		}
		return v.GetBool(key)
	}

	cfg := Config{
		Cluster:  pick("cluster"),
		Job:      pick("job"),
		Period:   pick("period"),
		Debug:    flag("debug"),
		Weekends: v.GetBool("weekends"),
		Visibility: Visibility{
			HidePSS: flag("hide_pss"),
			HideRSS: flag("hide_rss"),
		},
		Interval: v.GetDuration("interval"),
		Timeout:  v.GetDuration("timeout"),
	}

	if cfg.Cluster == "" {
		return Config{}, &MissingParameterError{Name: "cluster"}
	}
	if cfg.Job == "" {
		return Config{}, &MissingParameterError{Name: "job"}
	}
	if cfg.Period == "" {
		cfg.Period = DEFAULT_PERIOD
	}
	if !ValidPeriod(cfg.Period) {
		return Config{}, fmt.Errorf("invalid period %q (want one of %v)", cfg.Period, Periods)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = UpdateDuration()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = FetchTimeout()
	}

	schema, err := LookupSchema(pick("schema"))
	if err != nil {
		return Config{}, err
	}
	cfg.Schema = schema

	base, err := apiBase(v.GetString("api_url"), page)
	if err != nil {
		return Config{}, err
	}
	cfg.APIBase = base

	for _, key := range q.Keys() {
		if !pageParameters[key] {
			cfg.Ignored = append(cfg.Ignored, key)
		}
	}
	return cfg, nil
}

// apiBase resolves the REST API root: an explicit api_url, otherwise the
// origin of the page URL followed by API_BASE_PATH.
func apiBase(explicit, page string) (*url.URL, error) {
	if explicit != "" {
		u, err := url.Parse(explicit)
		if err != nil {
			return nil, fmt.Errorf("invalid api_url %q: %w", explicit, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid api_url %q: scheme and host required", explicit)
		}
		return u, nil
	}

	if !strings.Contains(page, "://") {
		return nil, &MissingParameterError{Name: "api_url"}
	}
	u, err := url.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", page, err)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: API_BASE_PATH}, nil
}

// Title is the page heading shown above the chart.
func (c Config) Title() string {
	return fmt.Sprintf("HPC metrics: cluster %s job %s", c.Cluster, c.Job)
}
