package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the attendance, dashboard, leave and face-verification operations over HTTP.
Requires ATTENDR_JWT_SECRET. The listen address comes from ATTENDR_SERVER_ADDR unless --addr is given.`,
	RunE: withApp(serverMode, func(cmd *cobra.Command, args []string, a *app) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.ServerAddr
		}

		server := api.New(api.Deps{
			Auth:        a.auth,
			Issuer:      a.issuer,
			Machine:     a.machine,
			Dashboard:   a.dashboard,
			Leaves:      a.leaves,
			Face:        a.face,
			Verifier:    a.verifier,
			Fence:       a.fence,
			Validate:    a.validate,
			Logger:      a.logger,
			AccessLog:   os.Stdout,
			CORSOrigins: a.cfg.CORSOrigins,
			Now:         a.now,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.Serve(ctx, server, addr, a.logger)
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from ATTENDR_SERVER_ADDR)")
}
