package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/cli/formatter"
)

func newDashCmd(a *App) *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Interactive portfolio dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newDashModel(cmd.Context(), a, refresh)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().DurationVar(&refresh, "refresh", time.Minute, "Auto refresh interval; 0 disables")
	return cmd
}

type dashKeys struct {
	Open, Back, Refresh, Quit key.Binding
}

func (k dashKeys) ShortHelp() []key.Binding { return []key.Binding{k.Open, k.Back, k.Refresh, k.Quit} }
func (k dashKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
func (k dashKeys) detailHelp() []key.Binding { return []key.Binding{k.Back, k.Refresh, k.Quit} }

var defaultDashKeys = dashKeys{
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "stages")),
	Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type statusLoadedMsg struct {
	resp *app.StatusResponse
	err  error
}

type healthLoadedMsg struct {
	health *app.ProjectHealth
	err    error
}

type tickMsg time.Time

// dashModel lists the portfolio and drills into one project's stages.
type dashModel struct {
	ctx     context.Context
	app     *App
	refresh time.Duration
	keys    dashKeys
	help    help.Model

	table  table.Model
	status *app.StatusResponse
	detail *app.ProjectHealth
	err    error
	width  int
}

func newDashModel(ctx context.Context, a *App, refresh time.Duration) *dashModel {
	t := table.New(
		table.WithColumns(dashColumns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(formatter.ColorHeader).Bold(true).
		BorderStyle(lipgloss.NormalBorder()).BorderForeground(formatter.ColorDim).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(formatter.ColorFg).Background(lipgloss.Color("#504945")).Bold(true)
	t.SetStyles(styles)

	return &dashModel{ctx: ctx, app: a, refresh: refresh, keys: defaultDashKeys, help: help.New(), table: t}
}

func dashColumns(width int) []table.Column {
	name := max(width-8-8-6-8-12-16, 16)
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "NAME", Width: name},
		{Title: "RAG", Width: 8},
		{Title: "SLIP", Width: 6},
		{Title: "STAGE", Width: 8},
		{Title: "DONE", Width: 12},
		{Title: "FORECAST", Width: 16},
	}
}

func (m *dashModel) Init() tea.Cmd {
	return tea.Batch(m.loadStatus(), m.tick())
}

func (m *dashModel) loadStatus() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.app.Status.GetStatus(m.ctx, app.NewStatusRequest())
		return statusLoadedMsg{resp: resp, err: err}
	}
}

func (m *dashModel) loadHealth(projectID string) tea.Cmd {
	return func() tea.Msg {
		h, err := m.app.Status.ProjectHealth(m.ctx, projectID, nil)
		return healthLoadedMsg{health: h, err: err}
	}
}

func (m *dashModel) tick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetColumns(dashColumns(msg.Width))
		m.table.SetHeight(max(msg.Height-8, 4))
		return m, nil

	case statusLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.resp
			m.table.SetRows(dashRows(msg.resp))
		}
		return m, nil

	case healthLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.detail = msg.health
		}
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.loadStatus(), m.tick()}
		if m.detail != nil {
			cmds = append(cmds, m.loadHealth(m.detail.ProjectID))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.detail != nil {
				return m, m.loadHealth(m.detail.ProjectID)
			}
			return m, m.loadStatus()
		case key.Matches(msg, m.keys.Back):
			m.detail = nil
			return m, nil
		case key.Matches(msg, m.keys.Open) && m.detail == nil:
			if m.status == nil {
				return m, nil
			}
			i := m.table.Cursor()
			if i < 0 || i >= len(m.status.Projects) {
				return m, nil
			}
			return m, m.loadHealth(m.status.Projects[i].ProjectID)
		}
	}

	if m.detail != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// dashRows are plain text; the table pads by rune count and would
// misalign styled cells.
func dashRows(resp *app.StatusResponse) []table.Row {
	rows := make([]table.Row, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		slip := "--"
		if p.MaxSlip > 0 {
			slip = fmt.Sprintf("+%dd", p.MaxSlip)
		}
		forecast := "--"
		if p.ForecastCompletion != nil {
			forecast = p.ForecastCompletion.Format("2006-01-02")
		}
		rows = append(rows, table.Row{
			p.ShortID,
			p.ProjectName,
			"● " + strings.ToUpper(string(p.RAG)),
			slip,
			p.CurrentStage,
			fmt.Sprintf("%d/%d", p.StagesDone, p.StagesTotal),
			forecast,
		})
	}
	return rows
}

func (m *dashModel) View() string {
	var b strings.Builder
	b.WriteString(formatter.StyleHeader.Render("STAGEGATE") + "  " + formatter.Dim("portfolio health") + "\n\n")

	switch {
	case m.err != nil:
		b.WriteString(formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n\n")
	case m.status == nil:
		b.WriteString(formatter.Dim("Loading...") + "\n\n")
	}

	if m.detail != nil {
		b.WriteString(formatter.FormatHealth(m.detail, m.app.Thresholds) + "\n")
		b.WriteString(m.help.ShortHelpView(m.keys.detailHelp()))
		return b.String()
	}

	if m.status != nil {
		b.WriteString(m.table.View() + "\n\n")
		s := m.status.Summary
		b.WriteString(fmt.Sprintf("%s  %s  %s  %s\n\n",
			formatter.StyleRed.Render(fmt.Sprintf("%d red", s.CountsRed)),
			formatter.StyleYellow.Render(fmt.Sprintf("%d amber", s.CountsAmber)),
			formatter.StyleGreen.Render(fmt.Sprintf("%d green", s.CountsGreen)),
			formatter.Dim("as of "+s.Today.Format("2006-01-02")),
		))
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
