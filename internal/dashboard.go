package jobtop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

// maxErrorLines bounds the error region; older entries are summarized.
const maxErrorLines = 4

// PollControl is the part of the poll loop the dashboard drives.
type PollControl interface {
	SetPeriod(period string)
	Period() string
	State() PollState
}

type (
	tickMsg   time.Time
	seriesMsg []MetricSeries
	jobMsg    JobInfo
	debugMsg  DebugInfo
	errorMsg  struct{ err error }
)

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// programSink hands poll results to the bubbletea program so that the
// chart is only touched from the update loop.
type programSink struct {
	send func(tea.Msg)
}

func (s *programSink) Render(series []MetricSeries) error {
	s.send(seriesMsg(series))
	return nil
}

func (s *programSink) SetJob(info JobInfo)    { s.send(jobMsg(info)) }
func (s *programSink) Replace(info DebugInfo) { s.send(debugMsg(info)) }
func (s *programSink) Report(err error)       { s.send(errorMsg{err: err}) }

type dashboardModel struct {
	cfg      Config
	poller   PollControl
	surface  *TermSurface
	chart    *ChartAdapter
	tabs     *PeriodTabs
	debug    *DebugPanel
	reporter *ErrorReporter
	job      *JobInfo
	updated  time.Time
	now      func() time.Time
	width    int
	height   int
	ready    bool
}

func NewDashboard(cfg Config, poller PollControl) *dashboardModel {
	surface := NewTermSurface(0, 0)
	return &dashboardModel{
		cfg:      cfg,
		poller:   poller,
		surface:  surface,
		chart:    NewChartAdapter(surface, NewChartConfiguration(cfg.Schema, cfg.Weekends)),
		tabs:     NewPeriodTabs(Periods, cfg.Period),
		debug:    NewDebugPanel(cfg.Debug),
		reporter: NewErrorReporter(),
		now:      time.Now,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tickCmd()
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case seriesMsg:
		if err := m.chart.Render(msg); err != nil {
			m.reporter.Report(err)
		}
		m.updated = m.now()

	case jobMsg:
		info := JobInfo(msg)
		m.job = &info

	case debugMsg:
		m.debug.Replace(DebugInfo(msg))

	case errorMsg:
		m.reporter.Report(msg.err)

	case tickMsg:
		cmd = tickCmd()
	}

	m.layout()
	return m, cmd
}

func (m *dashboardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	redraw := true
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return tea.Quit
	case "esc":
		if m.debug.Visible() {
			m.debug.Toggle()
		}
		redraw = false
	case "d":
		m.debug.Toggle()
		redraw = false
	case "1", "2", "3":
		if m.tabs.SelectIndex(int(key[0] - '1')) {
			m.poller.SetPeriod(m.tabs.Current())
		}
		redraw = false
	case "p":
		m.poller.SetPeriod(m.tabs.Next())
		redraw = false
	case "r":
		m.poller.SetPeriod(m.tabs.Current())
		redraw = false
	case "[":
		m.surface.PrevSeries()
	case "]":
		m.surface.NextSeries()
	case " ", "space", "enter":
		m.surface.ToggleSeries()
	case "+", "=":
		m.surface.ZoomIn()
	case "-":
		m.surface.ZoomOut()
	case "h", "left":
		m.surface.PanLeft()
	case "l", "right":
		m.surface.PanRight()
	case "0":
		m.surface.ResetView()
	default:
		redraw = false
	}

	if redraw && m.chart.Initialized() {
		m.surface.Draw()
	}
	return nil
}

// layout fits the chart surface to whatever the chrome leaves over.
func (m *dashboardModel) layout() {
	if !m.ready {
		return
	}
	w, h := m.chartSize()
	if cw, ch := m.surface.Size(); cw == w && ch == h {
		return
	}
	m.surface.SetSize(w, h)
	m.chart.Resize()
}

func (m dashboardModel) chartSize() (int, int) {
	used := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.tabs.Render()) +
		lipgloss.Height(m.renderHelp()) +
		2 + 1 // chart pane border and title
	if errs := m.renderErrors(); errs != "" {
		used += lipgloss.Height(errs)
	}
	return max(m.width-2, 0), max(m.height-used, 0)
}

func (m dashboardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	w, h := m.chartSize()
	chartPane := NewPane(fmt.Sprintf("last %s", m.tabs.Current()), w, h+1).
		SetBadge(m.statusLine()).
		SetContent(m.surface.View()).
		SetFocused(true)

	parts := []string{m.renderHeader(), m.tabs.Render(), chartPane.Render()}
	if errs := m.renderErrors(); errs != "" {
		parts = append(parts, errs)
	}
	parts = append(parts, m.renderHelp())
	baseView := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.debug.Visible() {
		return m.renderModal(baseView)
	}
	return baseView
}

func (m dashboardModel) statusLine() string {
	status := m.poller.State().String()
	if !m.updated.IsZero() {
		status += " · updated " + m.updated.Format("15:04:05")
	}
	return status
}

// renderHeader shows the title and, once known, the job's node sets.
func (m dashboardModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("33")).
		Bold(true)
	title := titleStyle.Render(m.cfg.Title())
	if m.job == nil {
		return title
	}

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	field := func(name, value string) string {
		if value == "" {
			value = "-"
		}
		return keyStyle.Render(name) + " " + value
	}
	t := tree.New().
		Root(title).
		Child(
			field("nodes", m.job.Nodes),
			field("producers", m.job.Producers),
			field("mutes", m.job.Mutes),
		)
	return t.String()
}

// renderErrors shows the most recent reports, oldest first, or nothing
// when there are none.
func (m dashboardModel) renderErrors() string {
	lines := m.reporter.Lines()
	if len(lines) == 0 {
		return ""
	}
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	var b strings.Builder
	if hidden := len(lines) - maxErrorLines; hidden > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(fmt.Sprintf("(%d earlier)", hidden)))
		b.WriteString("\n")
		lines = lines[hidden:]
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(errStyle.Render(line))
	}
	return b.String()
}

func (m dashboardModel) renderHelp() string {
	help := "1-3/p=Period  r=Reload  []=Series  space=Toggle  +/-=Zoom  hl/arrows=Pan  0=Reset  q=Quit"
	if m.debug.Enabled() {
		help = "d=Debug  " + help
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Background(lipgloss.Color("235")).
		Width(m.width).
		Align(lipgloss.Center).
		Render(help)
}

// renderModal puts the debug panel over the dashboard.
func (m dashboardModel) renderModal(baseView string) string {
	modalWidth := int(float64(m.width) * 0.6)
	modalHeight := int(float64(m.height) * 0.6)

	modalPane := NewPane("debug", modalWidth, modalHeight).SetFocused(true)
	modalPane = modalPane.SetContent(m.debug.Render(modalPane.ContentHeight()))

	helpText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render("d/ESC=Close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modalPane.Render()+"\n"+helpText,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("235")),
	)
}

// Dashboard runs the terminal UI and its poll loop until the user quits.
func Dashboard(ctx context.Context, cfg Config, fetcher Fetcher) error {
	sink := &programSink{}
	poller := NewPoller(cfg, fetcher, Sinks{Chart: sink, Job: sink, Debug: sink, Errors: sink})
	m := NewDashboard(cfg, poller)
	p := tea.NewProgram(m, tea.WithAltScreen())
	sink.send = p.Send

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := poller.Run(pollCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("poll loop stopped: %v", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
