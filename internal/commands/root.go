package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/auth"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "attendr",
	Short: "Attendance clock, dashboard and leave requests",
	Long: `attendr records when you start and stop work each day, shows how much of the month
you have been present, and handles leave requests. Run 'attendr serve' to expose the same
operations over HTTP.`,
	SilenceUsage: true,
}

// withApp builds the app before fn runs and closes it afterwards
func withApp(mode appMode, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(mode)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// withSession is withApp for commands that need a signed-in user
func withSession(fn func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error) func(*cobra.Command, []string) error {
	return withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		return fn(cmd, args, a, sess)
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "attendr %s (commit %s, built %s)\n", version, commit, date)
	},
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(leaveCmd)
	rootCmd.AddCommand(faceCmd)
	rootCmd.AddCommand(geoCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
