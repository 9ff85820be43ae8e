package jobtop

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// DebugPanel shows the metadata and timers of the last successful poll.
// It exists only when the debug flag is set; a disabled panel ignores
// every call.
type DebugPanel struct {
	enabled bool
	visible bool
	info    DebugInfo
}

func NewDebugPanel(enabled bool) *DebugPanel {
	return &DebugPanel{enabled: enabled}
}

func (d *DebugPanel) Enabled() bool { return d.enabled }

// Visible reports whether the panel is currently shown.
func (d *DebugPanel) Visible() bool { return d.enabled && d.visible }

// Toggle flips visibility. It never fetches anything.
func (d *DebugPanel) Toggle() {
	if d.enabled {
		d.visible = !d.visible
	}
}

// Replace swaps the whole content for info.
func (d *DebugPanel) Replace(info DebugInfo) {
	if !d.enabled {
		return
	}
	d.info = DebugInfo{
		Metadata: make(map[string]string, len(info.Metadata)),
		Timers:   make(map[string]float64, len(info.Timers)),
	}
	for k, v := range info.Metadata {
		d.info.Metadata[k] = v
	}
	for k, v := range info.Timers {
		d.info.Timers[k] = v
	}
}

// MetadataRows returns key/value rows sorted by key.
func (d *DebugPanel) MetadataRows() [][]string {
	keys := make([]string, 0, len(d.info.Metadata))
	for k := range d.info.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, d.info.Metadata[k]}
	}
	return rows
}

// TimerRows returns timer rows sorted by key, durations as "%.3f s".
func (d *DebugPanel) TimerRows() [][]string {
	keys := make([]string, 0, len(d.info.Timers))
	for k := range d.info.Timers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, fmt.Sprintf("%.3f s", d.info.Timers[k])}
	}
	return rows
}

// Render draws both tables next to each other within height lines.
func (d *DebugPanel) Render(height int) string {
	meta := NewWrapTable("metadata").Headers("key", "value").Rows(d.MetadataRows()...).MaxHeight(height)
	timers := NewWrapTable("timers").Headers("timer", "duration").Rows(d.TimerRows()...).MaxHeight(height)
	return lipgloss.JoinHorizontal(lipgloss.Top, meta.Render(), "  ", timers.Render())
}
