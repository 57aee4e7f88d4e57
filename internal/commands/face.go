package commands

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/geo"
)

var faceCmd = &cobra.Command{
	Use:   "face",
	Short: "Talk to the face-verification service",
}

var faceHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the face service is reachable",
	Args:  cobra.NoArgs,
	RunE: withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		h, err := a.face.Health(cmd.Context())
		if err != nil {
			return err
		}
		scanner := "idle"
		if h.ScannerActive {
			scanner = "scanning"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🟢 %s at %s (scanner %s)\n", h.Status, a.cfg.FaceAPIURL, scanner)

		faces, err := a.face.RegisteredFaces(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d registered face(s)\n", len(faces))
		return nil
	}),
}

var faceSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show who the face service saw today",
	Args:  cobra.NoArgs,
	RunE: withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		s, err := a.face.AttendanceSummary(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d present\n", s.TotalPresent)
		for _, r := range s.Records {
			confidence := "-"
			if r.Confidence != nil {
				confidence = fmt.Sprintf("%.0f%%", *r.Confidence*100)
			}
			fmt.Fprintf(out, "  %-20s %s  %s  %s\n", r.Name, r.Time, r.Camera, confidence)
		}
		return nil
	}),
}

var faceSnapshotCmd = &cobra.Command{
	Use:   "snapshot <out.jpg>",
	Short: "Save the scanner's current camera frame",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		if _, err := a.face.StartScanner(cmd.Context()); err != nil {
			return err
		}
		defer func() {
			if _, err := a.face.StopScanner(cmd.Context()); err != nil {
				a.logger.Warn("stop scanner failed", "err", err)
			}
		}()

		frame, err := a.face.Frame(cmd.Context())
		if err != nil {
			return err
		}
		image, err := base64.StdEncoding.DecodeString(frame.Frame)
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if err := os.WriteFile(args[0], image, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📸 Saved %d bytes to %s\n", len(image), args[0])
		if d := frame.Detection; d.Identified() {
			fmt.Fprintf(cmd.OutOrStdout(), "Recognised %s\n", d.Identity())
		}
		return nil
	}),
}

var faceRegisterCmd = &cobra.Command{
	Use:   "register <image>",
	Short: "Register a face image for yourself",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			u, err := a.auth.User(cmd.Context(), sess)
			if err != nil {
				return err
			}
			if u != nil {
				name = u.FaceName
			}
		}

		image, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ack, err := a.face.RegisterFace(cmd.Context(), name, filepath.Base(args[0]), image)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", ack.Message)
		return nil
	}),
}

var faceVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify location and face, then clock in or out",
	Long: `Check that --lat/--lon is inside the office fence, scan until the face service
recognises you, and then perform --action (in or out). Without --action only the check runs.

Example:
  attendr face verify --lat 28.5451 --lon 77.1925 --action in`,
	Args: cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, a *app, sess auth.Session) error {
		p, err := pointFlags(cmd)
		if err != nil {
			return err
		}
		action, _ := cmd.Flags().GetString("action")
		action = strings.ToLower(strings.TrimSpace(action))
		if action != "" && action != "in" && action != "out" {
			return fmt.Errorf("--action must be in or out")
		}

		u, err := a.auth.User(cmd.Context(), sess)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("account no longer exists")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "📷 Look at the camera...")
		d, err := a.verifier.Verify(cmd.Context(), u.FaceName, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Recognised %s (confidence %.0f%%)\n", d.Identity(), d.Confidence*100)

		switch action {
		case "in":
			rec, err := a.machine.ClockIn(cmd.Context(), sess, a.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "⏱️  Clocked in at %s\n", rec.ClockInTime.In(a.cfg.Location).Format("15:04:05"))
		case "out":
			rec, err := a.machine.ClockOut(cmd.Context(), sess, a.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "⏹️  Clocked out. Worked today: %s\n", attendance.FormatHoursMinutes(rec.TotalSeconds))
		}
		return nil
	}),
}

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Geofence helpers",
}

var geoCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether a coordinate is inside the office fence",
	Args:  cobra.NoArgs,
	RunE: withApp(cliMode, func(cmd *cobra.Command, args []string, a *app) error {
		p, err := pointFlags(cmd)
		if err != nil {
			return err
		}
		inside, distance := a.fence.Check(p)
		if inside {
			fmt.Fprintf(cmd.OutOrStdout(), "📍 Inside the fence (%.0fm from the centre, radius %.0fm)\n", distance, a.fence.RadiusMeters)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🚫 Outside the fence (%.0fm from the centre, radius %.0fm)\n", distance, a.fence.RadiusMeters)
		return nil
	}),
}

func pointFlags(cmd *cobra.Command) (geo.Point, error) {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return geo.Point{}, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

func init() {
	faceRegisterCmd.Flags().String("name", "", "Name to register under (defaults to your face name)")
	faceVerifyCmd.Flags().Float64("lat", 0, "Latitude")
	faceVerifyCmd.Flags().Float64("lon", 0, "Longitude")
	faceVerifyCmd.Flags().String("action", "", "in or out")
	faceVerifyCmd.MarkFlagRequired("lat")
	faceVerifyCmd.MarkFlagRequired("lon")

	geoCheckCmd.Flags().Float64("lat", 0, "Latitude")
	geoCheckCmd.Flags().Float64("lon", 0, "Longitude")
	geoCheckCmd.MarkFlagRequired("lat")
	geoCheckCmd.MarkFlagRequired("lon")

	faceCmd.AddCommand(faceHealthCmd)
	faceCmd.AddCommand(faceRegisterCmd)
	faceCmd.AddCommand(faceSummaryCmd)
	faceCmd.AddCommand(faceSnapshotCmd)
	faceCmd.AddCommand(faceVerifyCmd)
	geoCmd.AddCommand(geoCheckCmd)
}
