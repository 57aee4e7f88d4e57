package attendance

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/balkashynov/attendr/internal/models"
)

var errBoom = errors.New("boom")

// memStore is an in-memory Store with switchable failures
type memStore struct {
	records   map[uint]*models.ClockRecord
	nextID    uint
	failRead  bool
	failWrite bool
	writes    int
}

func newMemStore() *memStore {
	return &memStore{records: map[uint]*models.ClockRecord{}, nextID: 1}
}

func (s *memStore) InsertClockRecord(ctx context.Context, userID string, date, clockIn time.Time, totalSeconds int64) (*models.ClockRecord, error) {
	if s.failWrite {
		return nil, errBoom
	}
	s.writes++
	rec := &models.ClockRecord{
		ID:           s.nextID,
		UserID:       userID,
		Date:         datatypes.Date(date),
		ClockInTime:  clockIn,
		TotalSeconds: totalSeconds,
		CreatedAt:    clockIn,
		UpdatedAt:    clockIn,
	}
	s.nextID++
	s.records[rec.ID] = rec
	cp := *rec
	return &cp, nil
}

func (s *memStore) UpdateClockRecord(ctx context.Context, id uint, f ClockRecordFields) (*models.ClockRecord, error) {
	if s.failWrite {
		return nil, errBoom
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	s.writes++
	if f.ClockInTime != nil {
		rec.ClockInTime = *f.ClockInTime
	}
	if f.ClearClockOut {
		rec.ClockOutTime = nil
	}
	if f.ClockOutTime != nil {
		t := *f.ClockOutTime
		rec.ClockOutTime = &t
	}
	if f.TotalSeconds != nil {
		rec.TotalSeconds = *f.TotalSeconds
	}
	rec.UpdatedAt = rec.UpdatedAt.Add(time.Second)
	cp := *rec
	return &cp, nil
}

func (s *memStore) QueryClockRecord(ctx context.Context, userID string, date time.Time) (*models.ClockRecord, error) {
	if s.failRead {
		return nil, errBoom
	}
	for _, rec := range s.records {
		if rec.UserID == userID && rec.Day().Equal(date) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) QueryClockRecordsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ClockRecord, error) {
	if s.failRead {
		return nil, errBoom
	}
	var out []models.ClockRecord
	for _, rec := range s.records {
		d := rec.Day()
		if rec.UserID == userID && !d.Before(start) && !d.After(end) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *memStore) only(userID string) *models.ClockRecord {
	for _, rec := range s.records {
		if rec.UserID == userID {
			return rec
		}
	}
	return nil
}
