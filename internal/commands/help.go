package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/tui"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show comprehensive help for attendr",
	Long:  `Display detailed help for all attendr commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if target, _, err := rootCmd.Find(args); err == nil && target != rootCmd {
				target.Help()
				return
			}
		}
		showCustomHelp(cmd.OutOrStdout())
	},
}

func showCustomHelp(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, tui.Logo)
	fmt.Fprint(w, `
attendr - attendance clock, dashboard and leave requests

ACCOUNT:

  register                Create an account
    --email, --name       Required
    --face-name           Name known to the face service
    --admin               Create an admin
  login                   Sign in (session is remembered)
  logout                  Forget the session
  whoami                  Show the signed-in account

CLOCK:

  in                      Clock in and open the live clock
    --no-ui               Clock in without the live clock

    Live clock keys:
      i             Clock in (when not working)
      o             Clock out and exit
      r             Refresh
      esc/q         Exit, keep working

  out                     Clock out
  status                  Show today's clock
  dashboard               This month's attendance percentage and today's hours
  report [YYYY-MM]        Day by day table for a month
    --xlsx <file>         Write an Excel workbook instead

LEAVE:

  leave apply             Request leave
    -t, --type            Leave type (required)
    --team                Team name
    -r, --reason          Reason
    --from                First day: dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, +Nd
    --to | --days         Last day or number of days
  leave ls                Your requests
    --all, --status       Everyone's requests (admin)
  leave review            Interactive approve/reject (admin)
  leave approve <id>      Approve a pending request (admin)
  leave reject <id>       Reject a pending request (admin)

FACE & LOCATION:

  face health             Check the face service
  face register <image>   Register your face
  face verify             Fence check, face scan, then --action in|out
    --lat, --lon          Your coordinates
  geo check               Is a coordinate inside the fence
    --lat, --lon          Coordinates

SERVER:

  serve                   Run the HTTP API (needs ATTENDR_JWT_SECRET)
    --addr                Listen address

  version                 Print version
  help                    Show this help

Configuration is read from the environment and from .env files in the working
directory and in ATTENDR_HOME (default ~/.attendr).

`)
}
