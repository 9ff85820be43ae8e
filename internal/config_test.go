package jobtop

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("period", DEFAULT_PERIOD)
	v.SetDefault("schema", "cpu4")
	v.SetDefault("interval", UpdateDuration())
	return v
}

func TestLoadConfigFromPage(t *testing.T) {
	cfg, err := LoadConfig(newTestViper(), "https://hpc.example/jobmetrics/index.html?cluster=c1&job=42&period=6h&debug")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Cluster != "c1" || cfg.Job != "42" || cfg.Period != "6h" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.Debug {
		t.Error("debug flag not picked up")
	}
	if got := cfg.APIBase.String(); got != "https://hpc.example/jobmetrics-restapi" {
		t.Errorf("APIBase = %s", got)
	}
	if cfg.Interval != 10*time.Second {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.Title() != "HPC metrics: cluster c1 job 42" {
		t.Errorf("Title = %q", cfg.Title())
	}
}

func TestLoadConfigIgnoredParameters(t *testing.T) {
	cfg, err := LoadConfig(newTestViper(), "https://hpc.example/jobmetrics/?cluster=c1&utm_source=mail&job=42&hide_pss&tab=2&utm_source=x")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"utm_source", "tab", "utm_source"}
	if strings.Join(cfg.Ignored, ",") != strings.Join(want, ",") {
		t.Errorf("Ignored = %v, want %v", cfg.Ignored, want)
	}
}

func TestLoadConfigPageOverridesViper(t *testing.T) {
	v := newTestViper()
	v.Set("cluster", "from-env")
	v.Set("job", "1")
	v.Set("api_url", "http://api.local:5000/rest")

	cfg, err := LoadConfig(v, "job=2")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Cluster != "from-env" || cfg.Job != "2" {
		t.Errorf("cluster/job = %s/%s", cfg.Cluster, cfg.Job)
	}
	if cfg.APIBase.Host != "api.local:5000" {
		t.Errorf("APIBase = %s", cfg.APIBase)
	}
}

func TestLoadConfigMissingParameters(t *testing.T) {
	tests := []struct {
		page string
		want string
	}{
		{"https://hpc.example/?job=1", "cluster"},
		{"https://hpc.example/?cluster=c1", "job"},
		{"https://hpc.example/?cluster&job=1", "cluster"},
		{"cluster=c1&job=1", "api_url"},
	}
	for _, tt := range tests {
		_, err := LoadConfig(newTestViper(), tt.page)
		var missing *MissingParameterError
		if !errors.As(err, &missing) {
			t.Errorf("%s: expected MissingParameterError, got %v", tt.page, err)
			continue
		}
		if missing.Name != tt.want {
			t.Errorf("%s: missing %q, want %q", tt.page, missing.Name, tt.want)
		}
	}
}

func TestLoadConfigRejectsUnknownPeriodAndSchema(t *testing.T) {
	if _, err := LoadConfig(newTestViper(), "https://h/?cluster=c&job=1&period=2d"); err == nil {
		t.Error("expected error for period 2d")
	}
	if _, err := LoadConfig(newTestViper(), "https://h/?cluster=c&job=1&schema=cpu99"); err == nil {
		t.Error("expected error for unknown schema")
	}
}
