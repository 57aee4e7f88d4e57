package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/credentials"
	"github.com/balkashynov/attendr/internal/models"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account. The password is read from --password, ATTENDR_PASSWORD or stdin.

Examples:
  attendr register --email asha@example.com --name "Asha Rao"
  attendr register --email boss@example.com --name Boss --admin`,
	RunE: withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		faceName, _ := cmd.Flags().GetString("face-name")
		admin, _ := cmd.Flags().GetBool("admin")

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		in := auth.RegisterInput{Email: email, Password: password, FullName: name, FaceName: faceName}
		if admin {
			in.Role = models.RoleAdmin
		}
		if err := a.validate.Struct(in); err != nil {
			return err
		}

		u, err := a.auth.Register(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Account created for %s (%s)\n", u.FullName, u.Role)
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'attendr login' to sign in.")
		return nil
	}),
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE: withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		email, _ := cmd.Flags().GetString("email")
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		token, expires, sess, err := a.auth.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if err := a.creds.SaveToken(credentials.Token{
			Value:     token,
			UserID:    sess.UserID,
			Email:     sess.Email,
			Role:      string(sess.Role),
			ExpiresAt: expires,
		}); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🔓 Signed in as %s until %s\n", sess.Email, expires.In(a.cfg.Location).Format("Jan 02 15:04"))
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.creds.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "🔒 Signed out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		u, err := a.auth.User(cmd.Context(), sess)
		if err != nil {
			return err
		}
		if u == nil {
			a.creds.Clear()
			return credentials.ErrNotLoggedIn
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s <%s>\n", u.FullName, u.Email)
		fmt.Fprintf(out, "Role: %s\n", u.Role)
		fmt.Fprintf(out, "Face name: %s\n", u.FaceName)
		return nil
	}),
}

// readPassword takes --password, then ATTENDR_PASSWORD, then the first line of stdin
func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("ATTENDR_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}

func init() {
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("name", "", "Full name")
	registerCmd.Flags().String("face-name", "", "Name registered with the face service (defaults to full name)")
	registerCmd.Flags().String("password", "", "Password (at least 8 characters)")
	registerCmd.Flags().Bool("admin", false, "Create an admin account")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("name")

	loginCmd.Flags().String("email", "", "Email address")
	loginCmd.Flags().String("password", "", "Password")
	loginCmd.MarkFlagRequired("email")
}
