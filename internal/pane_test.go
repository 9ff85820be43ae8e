package jobtop

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPaneRender(t *testing.T) {
	p := NewPane("last 1h", 40, 5).
		SetBadge("scheduled").
		SetContent("line one\nline two")

	out := p.Render()
	if got := lipgloss.Height(out); got != p.OuterHeight() {
		t.Errorf("height = %d, want %d", got, p.OuterHeight())
	}
	if got := lipgloss.Width(out); got != 42 {
		t.Errorf("width = %d, want 42", got)
	}

	lines := strings.Split(out, "\n")
	header := lines[1]
	if !strings.Contains(header, "last 1h") || !strings.Contains(header, "scheduled") {
		t.Errorf("title line = %q", header)
	}
	if strings.Index(header, "last 1h") > strings.Index(header, "scheduled") {
		t.Error("badge is not right of the title")
	}
	if !strings.Contains(lines[2], "line one") {
		t.Errorf("content not below the title: %q", lines[2])
	}
}

func TestPaneContentHeight(t *testing.T) {
	if got := NewPane("debug", 10, 6).ContentHeight(); got != 5 {
		t.Errorf("titled pane content height = %d, want 5", got)
	}
	if got := NewPane("", 10, 6).ContentHeight(); got != 6 {
		t.Errorf("untitled pane content height = %d, want 6", got)
	}
	if got := NewPane("x", 10, 0).ContentHeight(); got != 0 {
		t.Errorf("empty pane content height = %d", got)
	}
}

func TestPaneClipsOverflow(t *testing.T) {
	p := NewPane("", 20, 2).SetContent("a\nb\nc\nd")
	if got := lipgloss.Height(p.Render()); got != 4 {
		t.Errorf("height = %d, want 4", got)
	}
}
