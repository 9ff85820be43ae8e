package jobtop

import (
	"reflect"
	"testing"
)

func TestParseQueryFlagsAndValues(t *testing.T) {
	q := ParseQuery("https://hpc.example/jobmetrics/?cluster=c1&job=42&debug&hide_pss=false#top")

	if p, ok := q.Get("cluster"); !ok || p.Value != "c1" || p.Flag {
		t.Errorf("cluster = %+v, %v", p, ok)
	}
	if p, ok := q.Get("debug"); !ok || !p.Flag {
		t.Errorf("debug should be a flag, got %+v, %v", p, ok)
	}
	if _, ok := q.Get("period"); ok {
		t.Error("period should be absent")
	}

	// "false" as a value is present, unlike a missing key
	p, ok := q.Get("hide_pss")
	if !ok || p.Value != "false" {
		t.Errorf("hide_pss = %+v, %v", p, ok)
	}
	if q.Bool("hide_pss") {
		t.Error("hide_pss=false should not be true")
	}
	if !q.Bool("debug") {
		t.Error("bare debug flag should be true")
	}
	if q.Bool("hide_rss") {
		t.Error("absent hide_rss should be false")
	}
}

func TestParseQueryDecodesAfterSplit(t *testing.T) {
	tests := []struct {
		raw   string
		key   string
		value string
	}{
		{"job=a%26b", "job", "a&b"},
		{"job=a%3Db&cluster=x", "job", "a=b"},
		{"cluster=my%20cluster", "cluster", "my cluster"},
		{"cluster=a+b", "cluster", "a+b"},
		{"job=1=2", "job", "1=2"},
		{"job=50%", "job", "50%"},
		{"j%6Fb=7", "job", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q := ParseQuery(tt.raw)
			if got := q.String(tt.key); got != tt.value {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestParseQueryKeepsOrder(t *testing.T) {
	q := ParseQuery("?b=1&&a&b=2")
	want := []string{"b", "a", "b"}
	if got := q.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if got := q.String("b"); got != "1" {
		t.Errorf("first b wins, got %q", got)
	}
}

func TestParseQueryEmpty(t *testing.T) {
	for _, raw := range []string{"", "?", "https://hpc.example/", "#x"} {
		if keys := ParseQuery(raw).Keys(); len(keys) != 0 {
			t.Errorf("ParseQuery(%q) keys = %v", raw, keys)
		}
	}
}
