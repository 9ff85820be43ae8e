package jobtop

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// PeriodTabs is the row of period links above the chart.
type PeriodTabs struct {
	periods  []string
	selected int
}

// NewPeriodTabs selects current, or the first period if current is not
// one of periods.
func NewPeriodTabs(periods []string, current string) *PeriodTabs {
	pt := &PeriodTabs{periods: periods}
	pt.Select(current)
	return pt
}

func (pt *PeriodTabs) Current() string {
	if len(pt.periods) == 0 {
		return ""
	}
	return pt.periods[pt.selected]
}

// Select makes period the active tab and reports whether it changed.
func (pt *PeriodTabs) Select(period string) bool {
	for i, p := range pt.periods {
		if p == period {
			changed := i != pt.selected
			pt.selected = i
			return changed
		}
	}
	return false
}

// SelectIndex selects the i-th tab, counting from zero.
func (pt *PeriodTabs) SelectIndex(i int) bool {
	if i < 0 || i >= len(pt.periods) {
		return false
	}
	return pt.Select(pt.periods[i])
}

// Next moves to the following tab, wrapping around.
func (pt *PeriodTabs) Next() string {
	if len(pt.periods) > 0 {
		pt.selected = (pt.selected + 1) % len(pt.periods)
	}
	return pt.Current()
}

func (pt *PeriodTabs) Render() string {
	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Background(lipgloss.Color("235")).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("170"))

	inactiveTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("236"))

	rendered := make([]string, len(pt.periods))
	for i, p := range pt.periods {
		label := fmt.Sprintf("%d %s", i+1, p)
		if i == pt.selected {
			rendered[i] = activeTabStyle.Render(label)
		} else {
			rendered[i] = inactiveTabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
