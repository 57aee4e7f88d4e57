package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/attendr/internal/db"
	"github.com/balkashynov/attendr/internal/models"
)

// LeaveDeps wires the review screen to the leave service
type LeaveDeps struct {
	Load   func(ctx context.Context) ([]models.LeaveRequest, error)
	Decide func(ctx context.Context, id uint, status models.LeaveStatus) (*models.LeaveRequest, error)
	Feed   *db.Feed
}

type leavesLoadedMsg struct {
	reqs []models.LeaveRequest
	err  error
}

type leaveDecidedMsg struct {
	req *models.LeaveRequest
	err error
}

type leavesChangedMsg struct{}

// LeaveModel lists leave requests and lets an admin approve or reject the selected one
type LeaveModel struct {
	width  int
	height int

	deps    LeaveDeps
	changes <-chan struct{}

	all    []models.LeaveRequest
	shown  []models.LeaveRequest
	table  table.Model
	search textinput.Model

	searching bool
	notice    string
	err       error
}

var leaveColumns = []table.Column{
	{Title: "ID", Width: 5},
	{Title: "Employee", Width: 18},
	{Title: "Type", Width: 10},
	{Title: "From", Width: 11},
	{Title: "To", Width: 11},
	{Title: "Days", Width: 4},
	{Title: "Status", Width: 9},
	{Title: "Reason", Width: 30},
}

func NewLeaveModel(deps LeaveDeps, changes <-chan struct{}) LeaveModel {
	t := table.New(
		table.WithColumns(leaveColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		BorderBottom(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorAccentMain)).
		Bold(true)
	t.SetStyles(styles)

	search := textinput.New()
	search.Placeholder = "filter by name, type or team"
	search.CharLimit = 64
	search.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	search.Prompt = "/ "

	return LeaveModel{deps: deps, changes: changes, table: t, search: search}
}

func (m LeaveModel) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForChange(m.changes))
}

func (m LeaveModel) load() tea.Cmd {
	load := m.deps.Load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		reqs, err := load(ctx)
		return leavesLoadedMsg{reqs: reqs, err: err}
	}
}

func (m LeaveModel) decide(status models.LeaveStatus) tea.Cmd {
	req, ok := m.selected()
	if !ok {
		return nil
	}
	decide, id := m.deps.Decide, req.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		out, err := decide(ctx, id, status)
		return leaveDecidedMsg{req: out, err: err}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return leavesChangedMsg{}
	}
}

func (m LeaveModel) selected() (models.LeaveRequest, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return models.LeaveRequest{}, false
	}
	return m.shown[i], true
}

func (m LeaveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case leavesLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.all = msg.reqs
			m.applyFilter()
		}
		return m, nil

	case leaveDecidedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Leave #%d %s", msg.req.ID, strings.ToLower(string(msg.req.Status)))
		return m, m.load()

	case leavesChangedMsg:
		return m, tea.Batch(m.load(), waitForChange(m.changes))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(3, m.height-8))
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "/":
			m.searching = true
			m.table.Blur()
			return m, m.search.Focus()
		case "a":
			return m, m.decide(models.LeaveStatusApproved)
		case "r":
			return m, m.decide(models.LeaveStatusRejected)
		case "ctrl+r":
			return m, m.load()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m LeaveModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Reset()
		m.search.Blur()
		m.table.Focus()
		m.applyFilter()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.table.Focus()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *LeaveModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	m.shown = nil
	for _, r := range m.all {
		if query == "" || strings.Contains(strings.ToLower(leaveSearchText(r)), query) {
			m.shown = append(m.shown, r)
		}
	}
	rows := make([]table.Row, 0, len(m.shown))
	for _, r := range m.shown {
		rows = append(rows, leaveRow(r))
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func leaveSearchText(r models.LeaveRequest) string {
	parts := []string{r.LeaveType, r.TeamName, string(r.Status), r.Reason}
	if r.User != nil {
		parts = append(parts, r.User.FullName, r.User.Email)
	}
	return strings.Join(parts, " ")
}

func leaveRow(r models.LeaveRequest) table.Row {
	owner := r.UserID
	if r.User != nil {
		owner = r.User.FullName
		if owner == "" {
			owner = r.User.Email
		}
	}
	return table.Row{
		strconv.FormatUint(uint64(r.ID), 10),
		owner,
		r.LeaveType,
		time.Time(r.StartDate).Format("02/01/2006"),
		time.Time(r.EndDate).Format("02/01/2006"),
		strconv.Itoa(r.Days()),
		string(r.Status),
		r.Reason,
	}
}

func (m LeaveModel) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Render("LEAVE REQUESTS")
	count := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Render(fmt.Sprintf("  %d of %d", len(m.shown), len(m.all)))
	b.WriteString(title + count + "\n\n")

	b.WriteString(lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Render(m.table.View()))
	b.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("✗ " + m.err.Error()))
	case m.notice != "":
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render("✓ " + m.notice))
	}
	b.WriteString("\n")

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Render("↑/↓ navigate · a approve · r reject · / filter · ctrl+r reload · q quit"))
	return b.String()
}

// RunLeaveTUI opens the review screen. Changes written by anyone else are picked up
// through the feed.
func RunLeaveTUI(ctx context.Context, deps LeaveDeps) error {
	changes := make(chan struct{}, 1)
	if deps.Feed != nil {
		unsubscribe := deps.Feed.Subscribe("leave_requests", db.Filter{}, func(db.Change) {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()
	}

	_, err := run(ctx, NewLeaveModel(deps, changes))
	return err
}
