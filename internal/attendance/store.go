package attendance

import (
	"context"
	"time"

	"github.com/balkashynov/attendr/internal/models"
)

// ClockRecordFields is a partial update of a ClockRecord. Nil pointers are left untouched.
type ClockRecordFields struct {
	ClockInTime   *time.Time
	ClockOutTime  *time.Time
	ClearClockOut bool
	TotalSeconds  *int64
}

// Store is the persistence collaborator for clock records. Dates are UTC midnights.
// QueryClockRecord returns (nil, nil) when no record exists.
type Store interface {
	InsertClockRecord(ctx context.Context, userID string, date, clockIn time.Time, totalSeconds int64) (*models.ClockRecord, error)
	UpdateClockRecord(ctx context.Context, id uint, fields ClockRecordFields) (*models.ClockRecord, error)
	QueryClockRecord(ctx context.Context, userID string, date time.Time) (*models.ClockRecord, error)
	QueryClockRecordsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ClockRecord, error)
}
