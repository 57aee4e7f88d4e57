package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyClockedIn  = errors.New("already clocked in, clock out first")
	ErrNoActiveSession   = errors.New("no active session found")
	ErrInvalidInterval   = errors.New("invalid interval: end is before start")
	ErrInvalidDuration   = errors.New("invalid duration: seconds must be non-negative")
	ErrRemoteWriteFailed = errors.New("failed to save attendance record")
	ErrRemoteReadFailed  = errors.New("failed to load attendance record")
	ErrAuthRequired      = errors.New("sign in required")
)

func readFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteReadFailed, err)
}

func writeFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteWriteFailed, err)
}
