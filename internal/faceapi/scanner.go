package faceapi

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrNoIdentity = errors.New("no face identified before the scan ended")

// Scanner drives one verification: start the camera, poll until a registered face is
// seen, stop the camera.
type Scanner struct {
	client   *Client
	interval time.Duration
	logger   *slog.Logger
}

func NewScanner(client *Client, interval time.Duration, logger *slog.Logger) *Scanner {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{client: client, interval: interval, logger: logger}
}

// WaitForIdentity polls the scanner status until a detection newer than since identifies a
// registered face, then returns it. The scanner is stopped on every return path. Bound the
// wait with ctx.
func (s *Scanner) WaitForIdentity(ctx context.Context, since time.Time) (Detection, error) {
	ack, err := s.client.StartScanner(ctx)
	if err != nil {
		return Detection{}, err
	}
	if !ack.Success {
		// already running is fine; anything else is logged and polling continues
		s.logger.Info("scanner start not acknowledged", "message", ack.Message)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.client.StopScanner(stopCtx); err != nil {
			s.logger.Warn("failed to stop scanner", "err", err)
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		status, err := s.client.Status(ctx)
		switch {
		case err != nil && errors.Is(err, ErrRejected):
			return Detection{}, err
		case err != nil:
			// transient; keep polling until ctx says stop
			s.logger.Warn("scanner status failed", "err", err)
		default:
			d := status.LatestDetection
			if d.Identified() && d.At().After(since) {
				s.logger.Info("face identified", "name", d.Identity(), "status", d.Status, "confidence", d.Confidence)
				return d, nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Detection{}, ErrNoIdentity
			}
			return Detection{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
