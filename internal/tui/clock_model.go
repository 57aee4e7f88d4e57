package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/db"
)

// ClockDeps is what the live clock screen reads from and writes to
type ClockDeps struct {
	Machine   *attendance.Machine
	Dashboard *attendance.Dashboard
	Feed      *db.Feed
	Session   auth.Session
	Name      string
	Now       func() time.Time
}

// refreshed carries the result of re-reading today's record and the month stats
type refreshed struct {
	snap  attendance.Snapshot
	stats attendance.MonthStats
	err   error
}

type clockTickMsg time.Time

type refreshedMsg refreshed

type clockActionMsg struct {
	action string
	err    error
}

// ClockModel shows the running work clock for today and the month's figures.
// Store changes arrive through the feed and are reconciled in the background; the
// seconds counter itself is derived locally on every tick.
type ClockModel struct {
	width  int
	height int

	deps       ClockDeps
	updates    <-chan refreshed
	invalidate func()

	snap   attendance.Snapshot
	stats  attendance.MonthStats
	loaded bool
	err    error
	notice string

	rollover time.Time // date a midnight refresh was requested for

	busy     bool
	clockOut bool // user asked to clock out on exit
	quitting bool
}

func NewClockModel(deps ClockDeps, updates <-chan refreshed, invalidate func()) ClockModel {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return ClockModel{deps: deps, updates: updates, invalidate: invalidate}
}

func (m ClockModel) Init() tea.Cmd {
	m.invalidate()
	return tea.Batch(clockTick(), waitForRefresh(m.updates))
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

func waitForRefresh(ch <-chan refreshed) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return refreshedMsg(r)
	}
}

func (m ClockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clockTickMsg:
		if m.quitting {
			return m, nil
		}
		now := m.deps.Now()
		today := m.deps.Machine.Today(now)
		if m.loaded && !today.Equal(m.snap.Date) && !today.Equal(m.rollover) {
			// midnight passed; today's record is a different row now. Once per date, so the
			// next tick does not cancel the fetch in flight.
			m.rollover = today
			m.invalidate()
		}
		m.snap = attendance.SnapshotOf(m.snap.Record, m.snap.Date, now)
		return m, clockTick()

	case refreshedMsg:
		m.busy = false
		m.rollover = time.Time{}
		m.err = msg.err
		if msg.snap.Date.IsZero() {
			// today's record could not be read; keep what is on screen
			return m, waitForRefresh(m.updates)
		}
		m.snap = msg.snap
		m.loaded = true
		if msg.err == nil {
			m.stats = msg.stats
		}
		return m, waitForRefresh(m.updates)

	case clockActionMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = msg.action
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "i", "I":
			if m.busy || m.snap.State == attendance.StateWorking {
				return m, nil
			}
			m.busy = true
			return m, m.clockIn()
		case "o", "O":
			if m.snap.State != attendance.StateWorking {
				return m, nil
			}
			m.clockOut = true
			m.quitting = true
			return m, tea.Quit
		case "r", "R":
			m.busy = true
			m.invalidate()
			return m, nil
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ClockModel) clockIn() tea.Cmd {
	machine, sess, now := m.deps.Machine, m.deps.Session, m.deps.Now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := machine.ClockIn(ctx, sess, now())
		return clockActionMsg{action: "Clocked in", err: err}
	}
}

func (m ClockModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderClockPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderClockPanel(leftWidth, contentHeight),
		"  ",
		m.renderStatsPanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func (m ClockModel) renderClockPanel(width, height int) string {
	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
	var components []string

	header, color := stateHeader(m.snap.State)
	if !m.loaded {
		header, color = "LOADING", ColorSecondaryText
	}
	components = append(components, center.
		Foreground(lipgloss.Color(color)).
		Bold(true).
		Render(header))

	if m.deps.Name != "" {
		components = append(components, center.
			Foreground(lipgloss.Color(ColorPrimaryText)).
			Bold(true).
			Render(m.deps.Name))
	}

	clock := RenderBigClock(attendance.FormatClock(m.snap.LiveSeconds), color)
	var lines []string
	for _, line := range strings.Split(clock, "\n") {
		lines = append(lines, center.Render(line))
	}
	components = append(components, strings.Join(lines, "\n"))

	info := "Worked today: " + attendance.FormatHoursMinutes(m.snap.TotalSeconds)
	if rec := m.snap.Record; rec != nil && rec.Open() {
		info += fmt.Sprintf(" · in since %s", rec.ClockInTime.In(m.deps.Machine.Location()).Format("15:04:05"))
	}
	components = append(components, center.
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Render(info))

	if line := m.statusLine(); line != "" {
		components = append(components, center.Render(line))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

func (m ClockModel) statusLine() string {
	switch {
	case m.err != nil && errors.Is(m.err, attendance.ErrRemoteReadFailed):
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render("⚠ could not refresh, showing last known figures")
	case m.err != nil:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("✗ " + m.err.Error())
	case m.notice != "":
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render("✓ " + m.notice)
	}
	return ""
}

func stateHeader(s attendance.State) (string, string) {
	switch s {
	case attendance.StateWorking:
		return "●  WORKING  ●", ColorSuccess
	case attendance.StateCompleted:
		return "DONE FOR NOW", ColorAccentBright
	default:
		return "NOT CLOCKED IN", ColorDisabledText
	}
}

func (m ClockModel) renderStatsPanel(width, height int) string {
	var b strings.Builder
	inner := width - 8

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Align(lipgloss.Center).
		Width(inner).
		Render(Logo))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorBorder)).
		Align(lipgloss.Center).
		Width(inner).
		Render(strings.Repeat("─", max(0, min(width-12, 40)))))
	b.WriteString("\n\n")

	title := m.snap.Date.Format("Monday, Jan 02")
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(max(10, width-12)).
		Padding(0, 1).
		Render(title))
	b.WriteString("\n\n")

	row := lipgloss.NewStyle().Align(lipgloss.Center).Width(inner)
	value := func(s, color string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(s)
	}

	pctColor := ColorSuccess
	switch {
	case m.stats.AttendancePercentage < 50:
		pctColor = ColorError
	case m.stats.AttendancePercentage < 80:
		pctColor = ColorWarning
	}
	lines := []string{
		"📊 Attendance: " + value(fmt.Sprintf("%d%%", m.stats.AttendancePercentage), pctColor),
		"📅 Days present: " + value(fmt.Sprintf("%d / %d", m.stats.MonthlyAttendanceCount, m.stats.ElapsedCalendarDays), ColorAccentBright),
		"⏱  Today: " + value(fmt.Sprintf("%.1fh", m.stats.TodayHours), ColorAccentBright),
	}
	for _, l := range lines {
		b.WriteString(row.Render(l))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Height(height).Render(b.String())
}

func (m ClockModel) renderHelpBar() string {
	help := "i clock in · r refresh · q exit · ctrl+c force quit"
	if m.snap.State == attendance.StateWorking {
		help = "o clock out · r refresh · q exit (keep running) · ctrl+c force quit"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render(help)
}

// RunClockTUI shows the live clock until the user quits. Pressing o clocks out on exit.
func RunClockTUI(ctx context.Context, deps ClockDeps) error {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// one slot: a newer result replaces one the UI has not picked up yet
	updates := make(chan refreshed, 1)
	reconciler := attendance.NewReconciler(
		func(ctx context.Context) (refreshed, error) {
			now := deps.Now()
			snap, err := deps.Machine.Status(ctx, deps.Session, now)
			if err != nil {
				return refreshed{}, err
			}
			// a failed stats read is reported but the model keeps its last figures
			stats, err := deps.Dashboard.Refresh(ctx, deps.Session, now, attendance.MonthStats{})
			return refreshed{snap: snap, stats: stats, err: err}, nil
		},
		func(r refreshed, err error) {
			if err != nil {
				r.err = err
			}
			select {
			case <-updates:
			default:
			}
			updates <- r
		},
	)
	defer reconciler.Close()

	invalidate := func() { reconciler.Invalidate(ctx) }
	unsubscribe := deps.Feed.Subscribe("clock_records", db.Filter{UserID: deps.Session.UserID}, func(db.Change) {
		invalidate()
	})
	defer unsubscribe()

	final, err := run(ctx, NewClockModel(deps, updates, invalidate))
	if err != nil {
		return err
	}

	m, ok := final.(ClockModel)
	if !ok {
		return nil
	}
	if m.clockOut {
		rec, err := deps.Machine.ClockOut(context.Background(), deps.Session, deps.Now())
		if err != nil {
			return fmt.Errorf("failed to clock out: %w", err)
		}
		fmt.Printf("⏹️  Clocked out. Worked today: %s\n", attendance.FormatHoursMinutes(rec.TotalSeconds))
		return nil
	}
	if m.snap.State == attendance.StateWorking {
		fmt.Printf("\n💡 You are still clocked in (%s so far today).\n", attendance.FormatHoursMinutes(m.snap.TotalSeconds))
		fmt.Println("   Use 'attendr status' to check or 'attendr out' to clock out.")
	}
	return nil
}
