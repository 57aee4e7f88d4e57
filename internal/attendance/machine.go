package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/models"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateWorking    State = "working"
	StateCompleted  State = "completed"
)

// Snapshot is the attendance state of one user at one instant
type Snapshot struct {
	State        State               `json:"state"`
	Date         time.Time           `json:"date"`
	Record       *models.ClockRecord `json:"record"`
	LiveSeconds  int64               `json:"live_seconds"`
	TotalSeconds int64               `json:"total_seconds"`
}

// StateOf classifies today's record. A nil record means the user has not started.
func StateOf(rec *models.ClockRecord) State {
	switch {
	case rec == nil:
		return StateNotStarted
	case rec.Open():
		return StateWorking
	default:
		return StateCompleted
	}
}

// Machine performs clock-in and clock-out transitions against a Store.
// It holds no per-user state; every call reads the current record first.
type Machine struct {
	store  Store
	loc    *time.Location
	logger *slog.Logger
}

func NewMachine(store Store, loc *time.Location, logger *slog.Logger) *Machine {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{store: store, loc: loc, logger: logger}
}

// Today is the calendar date of now in the machine's location, as UTC midnight.
func (m *Machine) Today(now time.Time) time.Time {
	return models.DateOf(now.In(m.loc))
}

// Location returns the zone used to decide which calendar date "now" falls on
func (m *Machine) Location() *time.Location {
	return m.loc
}

// ClockIn opens a session for today.
func (m *Machine) ClockIn(ctx context.Context, sess auth.Session, now time.Time) (*models.ClockRecord, error) {
	if !sess.Authenticated() {
		return nil, ErrAuthRequired
	}
	today := m.Today(now)

	rec, err := m.store.QueryClockRecord(ctx, sess.UserID, today)
	if err != nil {
		return nil, readFailed(err)
	}

	if rec == nil {
		created, err := m.store.InsertClockRecord(ctx, sess.UserID, today, now, 0)
		if err != nil {
			m.logger.Error("clock in insert failed", "user_id", sess.UserID, "date", today.Format(time.DateOnly), "err", err)
			return nil, writeFailed(err)
		}
		m.logger.Info("clocked in", "user_id", sess.UserID, "record_id", created.ID, "first_of_day", true)
		return created, nil
	}

	if rec.Open() {
		return nil, ErrAlreadyClockedIn
	}

	updated, err := m.store.UpdateClockRecord(ctx, rec.ID, ClockRecordFields{
		ClockInTime:   &now,
		ClearClockOut: true,
	})
	if err != nil {
		m.logger.Error("clock in update failed", "user_id", sess.UserID, "record_id", rec.ID, "err", err)
		return nil, writeFailed(err)
	}
	m.logger.Info("clocked in", "user_id", sess.UserID, "record_id", updated.ID, "first_of_day", false)
	return updated, nil
}

// ClockOut closes today's open session and adds its length to the day's total.
func (m *Machine) ClockOut(ctx context.Context, sess auth.Session, now time.Time) (*models.ClockRecord, error) {
	if !sess.Authenticated() {
		return nil, ErrAuthRequired
	}
	today := m.Today(now)

	rec, err := m.store.QueryClockRecord(ctx, sess.UserID, today)
	if err != nil {
		return nil, readFailed(err)
	}
	if rec == nil || !rec.Open() {
		return nil, ErrNoActiveSession
	}

	// clock-out must land strictly after clock-in
	if !now.After(rec.ClockInTime) {
		return nil, ErrInvalidInterval
	}
	sessionSeconds, err := ElapsedSeconds(rec.ClockInTime, now)
	if err != nil {
		return nil, err
	}
	total, err := Accumulate(rec.TotalSeconds, sessionSeconds)
	if err != nil {
		return nil, err
	}

	updated, err := m.store.UpdateClockRecord(ctx, rec.ID, ClockRecordFields{
		ClockOutTime: &now,
		TotalSeconds: &total,
	})
	if err != nil {
		m.logger.Error("clock out update failed", "user_id", sess.UserID, "record_id", rec.ID, "err", err)
		return nil, writeFailed(err)
	}
	m.logger.Info("clocked out", "user_id", sess.UserID, "record_id", updated.ID, "session_seconds", sessionSeconds, "total_seconds", total)
	return updated, nil
}

// Status reads today's record and derives the live figures for display.
func (m *Machine) Status(ctx context.Context, sess auth.Session, now time.Time) (Snapshot, error) {
	if !sess.Authenticated() {
		return Snapshot{}, ErrAuthRequired
	}
	today := m.Today(now)

	rec, err := m.store.QueryClockRecord(ctx, sess.UserID, today)
	if err != nil {
		return Snapshot{}, readFailed(err)
	}
	return SnapshotOf(rec, today, now), nil
}

// SnapshotOf derives display figures from a record without touching the store.
func SnapshotOf(rec *models.ClockRecord, date, now time.Time) Snapshot {
	snap := Snapshot{State: StateOf(rec), Date: date, Record: rec}
	if rec == nil {
		return snap
	}
	snap.TotalSeconds = rec.TotalSeconds
	if rec.Open() {
		// clock skew can put now before clock-in; show zero rather than fail
		if live, err := LiveElapsed(rec.ClockInTime, now); err == nil {
			snap.LiveSeconds = live
			if total, err := Accumulate(rec.TotalSeconds, live); err == nil {
				snap.TotalSeconds = total
			}
		}
	}
	return snap
}
