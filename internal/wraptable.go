package jobtop

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WrapTable is a titled lipgloss table that splits into side-by-side
// columns when its rows exceed maxHeight.
type WrapTable struct {
	title       string
	headers     []string
	rows        [][]string
	maxHeight   int
	border      lipgloss.Border
	borderStyle lipgloss.Style
	titleStyle  lipgloss.Style
}

func NewWrapTable(title string) *WrapTable {
	return &WrapTable{
		title:       title,
		border:      lipgloss.NormalBorder(),
		borderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		titleStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

func (wt *WrapTable) Headers(headers ...string) *WrapTable {
	wt.headers = headers
	return wt
}

func (wt *WrapTable) Rows(rows ...[]string) *WrapTable {
	wt.rows = rows
	return wt
}

// MaxHeight bounds the rendered height, title line included. Zero means
// unbounded.
func (wt *WrapTable) MaxHeight(height int) *WrapTable {
	wt.maxHeight = height
	return wt
}

// RowsPerColumn is how many rows fit in one table under maxHeight: the
// title, header and three border lines are reserved.
func (wt *WrapTable) RowsPerColumn() int {
	if wt.maxHeight <= 0 {
		return len(wt.rows)
	}
	return max(wt.maxHeight-5, 1)
}

func (wt *WrapTable) Render() string {
	title := wt.titleStyle.Render(wt.title)
	if len(wt.rows) == 0 {
		return title + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("(none)")
	}

	perColumn := wt.RowsPerColumn()
	var tables []string
	for i := 0; i < len(wt.rows); i += perColumn {
		end := min(i+perColumn, len(wt.rows))
		t := table.New().
			Border(wt.border).
			BorderStyle(wt.borderStyle).
			Headers(wt.headers...).
			Rows(wt.rows[i:end]...)
		tables = append(tables, t.String())
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, tables...))
}

func (wt *WrapTable) String() string {
	return wt.Render()
}
