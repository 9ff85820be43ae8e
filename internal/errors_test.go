package jobtop

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorReporterAccumulates(t *testing.T) {
	r := NewErrorReporter()
	r.Report(&NetworkError{Status: 500, Message: "db down"})
	r.Report(&NetworkError{Status: 404, Message: "job not found"})
	r.Report(fmt.Errorf("fetch: %w", &NetworkError{Message: "connection refused"}))
	r.Report(nil)

	want := []string{
		"error 500: db down",
		"error 404: job not found",
		"error: connection refused",
	}
	got := r.Lines()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestErrorReporterPayloadError(t *testing.T) {
	r := NewErrorReporter()
	r.Report(&PayloadParseError{Status: 200, Err: errors.New("unexpected EOF")})
	lines := r.Lines()
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "error 200: ") || !strings.Contains(lines[0], "unexpected EOF") {
		t.Errorf("lines = %v", lines)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{500, `{"error":"db down"}`, "db down"},
		{502, "  bad gateway from proxy \n", "bad gateway from proxy"},
		{503, "", "Service Unavailable"},
		{500, `{"other":1}`, `{"other":1}`},
	}
	for _, tt := range tests {
		if got := errorMessage(tt.status, []byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%d, %q) = %q, want %q", tt.status, tt.body, got, tt.want)
		}
	}
}
