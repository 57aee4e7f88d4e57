package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/leave"
	"github.com/balkashynov/attendr/internal/models"
	"github.com/balkashynov/attendr/internal/parser"
	"github.com/balkashynov/attendr/internal/report"
	"github.com/balkashynov/attendr/internal/tui"
)

var leaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Apply for and review leave",
}

var leaveApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Request leave",
	Long: `Request leave for a date range. Give either --to or --days.

Dates accept dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, +Nd and "in N days".

Examples:
  attendr leave apply --type Sick --from today --days 2 --reason "flu"
  attendr leave apply --type Casual --team Platform --from 24/12/2026 --to 31/12/2026`,
	Args: cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		now := a.now().In(a.cfg.Location)
		leaveType, _ := cmd.Flags().GetString("type")
		team, _ := cmd.Flags().GetString("team")
		reason, _ := cmd.Flags().GetString("reason")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		days, _ := cmd.Flags().GetString("days")

		in := leave.ApplyInput{LeaveType: leaveType, TeamName: team, Reason: reason}
		var err error
		if in.StartDate, err = parser.ParseDate(from, now); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		switch {
		case to != "":
			if in.EndDate, err = parser.ParseDate(to, now); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
		case days != "":
			if in.Days, err = parser.ParseDays(days); err != nil {
				return fmt.Errorf("--days: %w", err)
			}
		default:
			in.Days = 1
		}

		req, err := a.leaves.Apply(cmd.Context(), sess, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Leave #%d requested: %s, %d day(s) from %s\n",
			req.ID, req.LeaveType, req.Days(), parser.FormatRelativeDate(time.Time(req.StartDate), now))
		return nil
	}),
}

var leaveListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List leave requests",
	Long:    "List your leave requests. Admins can pass --all to see everyone's, optionally filtered by --status.",
	Args:    cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		all, _ := cmd.Flags().GetBool("all")
		status, _ := cmd.Flags().GetString("status")
		now := a.now().In(a.cfg.Location)

		var (
			reqs []models.LeaveRequest
			err  error
		)
		if all {
			reqs, err = a.leaves.ListAll(cmd.Context(), sess, normalizeStatus(status))
		} else {
			reqs, err = a.leaves.ListMine(cmd.Context(), sess)
		}
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No leave requests found. Use 'attendr leave apply' to request leave.")
			return nil
		}
		report.WriteLeaves(cmd.OutOrStdout(), reqs, all, now)

		if !all {
			counts, err := a.leaves.Counts(cmd.Context(), sess)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatCounts(counts))
		}
		return nil
	}),
}

var leaveReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review leave requests interactively (admin)",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		if !sess.IsAdmin() {
			return leave.ErrForbidden
		}
		status, _ := cmd.Flags().GetString("status")
		a.listen(cmd.Context())
		return tui.RunLeaveTUI(cmd.Context(), tui.LeaveDeps{
			Load: func(ctx context.Context) ([]models.LeaveRequest, error) {
				return a.leaves.ListAll(ctx, sess, normalizeStatus(status))
			},
			Decide: func(ctx context.Context, id uint, s models.LeaveStatus) (*models.LeaveRequest, error) {
				return a.leaves.Decide(ctx, sess, id, s)
			},
			Feed: a.stores.Feed,
		})
	}),
}

var leaveApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending leave request (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(decideLeave(models.LeaveStatusApproved)),
}

var leaveRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending leave request (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(decideLeave(models.LeaveStatusRejected)),
}

func decideLeave(status models.LeaveStatus) func(*cobra.Command, []string, *app, auth.Session) error {
	return func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid leave ID '%s'", args[0])
		}
		req, err := a.leaves.Decide(cmd.Context(), sess, uint(id), status)
		if err != nil {
			return err
		}
		icon := "✅"
		if req.Status == models.LeaveStatusRejected {
			icon = "❌"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Leave #%d %s\n", icon, req.ID, strings.ToLower(string(req.Status)))
		return nil
	}
}

// normalizeStatus accepts any casing of pending, approved or rejected
func normalizeStatus(s string) models.LeaveStatus {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return models.LeaveStatus(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
}

func init() {
	leaveApplyCmd.Flags().StringP("type", "t", "", "Leave type, e.g. Sick or Casual")
	leaveApplyCmd.Flags().String("team", "", "Team name")
	leaveApplyCmd.Flags().StringP("reason", "r", "", "Reason")
	leaveApplyCmd.Flags().String("from", "today", "First day of leave")
	leaveApplyCmd.Flags().String("to", "", "Last day of leave")
	leaveApplyCmd.Flags().String("days", "", "Number of days, instead of --to")
	leaveApplyCmd.MarkFlagRequired("type")

	leaveListCmd.Flags().Bool("all", false, "Everyone's requests (admin)")
	leaveListCmd.Flags().StringP("status", "s", "", "Filter by status: pending, approved, rejected")
	leaveReviewCmd.Flags().StringP("status", "s", "pending", "Filter by status, empty for all")

	leaveCmd.AddCommand(leaveApplyCmd)
	leaveCmd.AddCommand(leaveListCmd)
	leaveCmd.AddCommand(leaveReviewCmd)
	leaveCmd.AddCommand(leaveApproveCmd)
	leaveCmd.AddCommand(leaveRejectCmd)
}
