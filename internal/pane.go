package jobtop

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pane is a bordered box with an optional title line and a status badge
// right-aligned on the same line.
//
//	pane := NewPane("last 6h", 80, 20).
//	    SetBadge("scheduled").
//	    SetContent(surface.View())
type Pane struct {
	title       string
	badge       string
	content     string
	width       int
	height      int
	borderStyle lipgloss.Style
	titleStyle  lipgloss.Style
	badgeStyle  lipgloss.Style
}

func NewPane(title string, width, height int) Pane {
	return Pane{
		title:  title,
		width:  width,
		height: height,
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),
		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true),
		badgeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

func (p Pane) SetContent(content string) Pane {
	p.content = content
	return p
}

func (p Pane) SetBadge(badge string) Pane {
	p.badge = badge
	return p
}

func (p Pane) SetFocused(focused bool) Pane {
	if focused {
		p.borderStyle = p.borderStyle.BorderForeground(lipgloss.Color("170"))
	} else {
		p.borderStyle = p.borderStyle.BorderForeground(lipgloss.Color("240"))
	}
	return p
}

// ContentHeight is the number of lines left for content.
func (p Pane) ContentHeight() int {
	if p.title != "" || p.badge != "" {
		return max(p.height-1, 0)
	}
	return p.height
}

// OuterHeight is the rendered height, borders included.
func (p Pane) OuterHeight() int {
	return p.height + 2
}

func (p Pane) Render() string {
	var b strings.Builder

	if p.title != "" || p.badge != "" {
		title := p.titleStyle.Render(p.title)
		badge := p.badgeStyle.Render(p.badge)
		gap := max(p.width-lipgloss.Width(title)-lipgloss.Width(badge), 1)
		b.WriteString(title + strings.Repeat(" ", gap) + badge + "\n")
	}
	b.WriteString(p.content)

	return p.borderStyle.
		Width(p.width).
		Height(p.height).
		MaxHeight(p.OuterHeight()).
		Render(b.String())
}
