package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/tui"
)

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Clock in for today",
	Long: `Clock in. Opens the live clock by default, use --no-ui for a plain clock in.

Examples:
  attendr in          # clock in and watch the clock
  attendr in --no-ui  # clock in and return`,
	Args: cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		noUI, _ := cmd.Flags().GetBool("no-ui")

		rec, err := a.machine.ClockIn(cmd.Context(), sess, a.now())
		switch {
		case errors.Is(err, attendance.ErrAlreadyClockedIn) && !noUI:
			// already running; just show the clock
		case err != nil:
			return err
		default:
			if noUI {
				fmt.Fprintf(cmd.OutOrStdout(), "⏱️  Clocked in at %s\n", rec.ClockInTime.In(a.cfg.Location).Format("15:04:05"))
				if rec.TotalSeconds > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Already worked today: %s\n", attendance.FormatHoursMinutes(rec.TotalSeconds))
				}
				return nil
			}
		}

		a.listen(cmd.Context())
		name := sess.Email
		if u, err := a.auth.User(cmd.Context(), sess); err == nil && u != nil {
			name = u.FullName
		}
		return tui.RunClockTUI(cmd.Context(), tui.ClockDeps{
			Machine:   a.machine,
			Dashboard: a.dashboard,
			Feed:      a.stores.Feed,
			Session:   sess,
			Name:      name,
			Now:       a.now,
		})
	}),
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Clock out",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		now := a.now()
		before, err := a.machine.Status(cmd.Context(), sess, now)
		if err != nil {
			return err
		}
		rec, err := a.machine.ClockOut(cmd.Context(), sess, now)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "⏹️  Clocked out at %s\n", now.In(a.cfg.Location).Format("15:04:05"))
		fmt.Fprintf(out, "Session: %s\n", attendance.FormatHoursMinutes(before.LiveSeconds))
		fmt.Fprintf(out, "Worked today: %s\n", attendance.FormatHoursMinutes(rec.TotalSeconds))
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's clock",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		snap, err := a.machine.Status(cmd.Context(), sess, a.now())
		if err != nil {
			return err
		}
		printSnapshot(cmd, a, snap)
		return nil
	}),
}

func printSnapshot(cmd *cobra.Command, a *app, snap attendance.Snapshot) {
	out := cmd.OutOrStdout()
	switch snap.State {
	case attendance.StateNotStarted:
		fmt.Fprintln(out, "Not clocked in today")
	case attendance.StateWorking:
		fmt.Fprintf(out, "⏱️  Working since %s (%s)\n",
			snap.Record.ClockInTime.In(a.cfg.Location).Format("15:04:05"),
			attendance.FormatClock(snap.LiveSeconds))
		fmt.Fprintf(out, "Worked today: %s\n", attendance.FormatHoursMinutes(snap.TotalSeconds))
	case attendance.StateCompleted:
		fmt.Fprintf(out, "Clocked out at %s\n", snap.Record.ClockOutTime.In(a.cfg.Location).Format("15:04:05"))
		fmt.Fprintf(out, "Worked today: %s\n", attendance.FormatHoursMinutes(snap.TotalSeconds))
	}
}

func init() {
	inCmd.Flags().Bool("no-ui", false, "Clock in without the live clock")
}
