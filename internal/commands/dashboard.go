package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/leave"
	"github.com/balkashynov/attendr/internal/parser"
	"github.com/balkashynov/attendr/internal/report"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show this month's attendance",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		now := a.now()
		stats, err := a.dashboard.Refresh(cmd.Context(), sess, now, attendance.MonthStats{})
		if err != nil {
			return err
		}
		counts, err := a.leaves.Counts(cmd.Context(), sess)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "📅 %s\n", now.In(a.cfg.Location).Format("January 2006"))
		fmt.Fprintf(out, "Attendance:   %d%% (%d of %d days)\n",
			stats.AttendancePercentage, stats.MonthlyAttendanceCount, stats.ElapsedCalendarDays)
		fmt.Fprintf(out, "Today:        %.1fh\n", stats.TodayHours)
		fmt.Fprintf(out, "Leaves:       %s\n", formatCounts(counts))
		return nil
	}),
}

func formatCounts(c leave.Counts) string {
	return fmt.Sprintf("%d pending, %d approved, %d rejected", c.Pending, c.Approved, c.Rejected)
}

var reportCmd = &cobra.Command{
	Use:   "report [month]",
	Short: "Day by day attendance for a month",
	Long: `Print a month of attendance as a table, or write it as an Excel workbook.

Month is YYYY-MM and defaults to the current month.

Examples:
  attendr report
  attendr report 2026-09 --xlsx september.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		now := a.now()
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		month, err := parser.ParseMonth(input, now.In(a.cfg.Location))
		if err != nil {
			return err
		}

		records, err := a.dashboard.Records(cmd.Context(), sess, month, month.AddDate(0, 1, -1))
		if err != nil {
			return err
		}
		m := report.Build(sess.Email, month, records, now, a.cfg.Location, a.logger)

		path, _ := cmd.Flags().GetString("xlsx")
		if path == "" {
			report.WriteTable(cmd.OutOrStdout(), m)
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
			path += ".xlsx"
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := report.WriteXLSX(f, m); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📊 Wrote %d days to %s\n", len(m.Days), path)
		return nil
	}),
}

var errAdminOnly = errors.New("only admins can see the team report")

var teamCmd = &cobra.Command{
	Use:   "team [month]",
	Short: "Per-employee totals for a month (admin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		if !sess.IsAdmin() {
			return errAdminOnly
		}
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		month, err := parser.ParseMonth(input, a.now().In(a.cfg.Location))
		if err != nil {
			return err
		}

		users, err := a.stores.Users.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		records, err := a.stores.Clock.QueryAllClockRecordsInRange(cmd.Context(), month, month.AddDate(0, 1, -1))
		if err != nil {
			return err
		}
		report.WriteTeam(cmd.OutOrStdout(), month, report.BuildTeam(users, records, a.logger))
		return nil
	}),
}

func init() {
	reportCmd.Flags().String("xlsx", "", "Write an Excel workbook to this path instead of printing")
}
