package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/models"
)

// ClockStore persists clock records with gorm
type ClockStore struct {
	db   *gorm.DB
	feed *Feed
}

func NewClockStore(db *gorm.DB, feed *Feed) *ClockStore {
	return &ClockStore{db: db, feed: feed}
}

var _ attendance.Store = (*ClockStore)(nil)

// InsertClockRecord creates the record for (userID, date)
func (s *ClockStore) InsertClockRecord(ctx context.Context, userID string, date, clockIn time.Time, totalSeconds int64) (*models.ClockRecord, error) {
	rec := models.ClockRecord{
		UserID:       userID,
		Date:         datatypes.Date(models.DateOf(date)),
		ClockInTime:  clockIn,
		TotalSeconds: totalSeconds,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	s.feed.Publish(Change{Table: rec.TableName(), Op: OpInsert, ID: rec.ID, UserID: userID})
	return &rec, nil
}

// UpdateClockRecord applies a partial update and returns the stored row
func (s *ClockStore) UpdateClockRecord(ctx context.Context, id uint, fields attendance.ClockRecordFields) (*models.ClockRecord, error) {
	updates := map[string]interface{}{}
	if fields.ClockInTime != nil {
		updates["clock_in_time"] = *fields.ClockInTime
	}
	if fields.ClearClockOut {
		updates["clock_out_time"] = nil
	} else if fields.ClockOutTime != nil {
		updates["clock_out_time"] = *fields.ClockOutTime
	}
	if fields.TotalSeconds != nil {
		updates["total_seconds"] = *fields.TotalSeconds
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update for clock record #%d", id)
	}

	var rec models.ClockRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ClockRecord{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("clock record #%d not found", id)
		}
		return tx.First(&rec, id).Error
	})
	if err != nil {
		return nil, err
	}
	s.feed.Publish(Change{Table: rec.TableName(), Op: OpUpdate, ID: rec.ID, UserID: rec.UserID})
	return &rec, nil
}

// QueryClockRecord returns the record for (userID, date), or nil when there is none
func (s *ClockStore) QueryClockRecord(ctx context.Context, userID string, date time.Time) (*models.ClockRecord, error) {
	var rec models.ClockRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, datatypes.Date(models.DateOf(date))).
		Order("updated_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// QueryClockRecordsInRange returns the user's records between start and end inclusive, oldest first
func (s *ClockStore) QueryClockRecordsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ClockRecord, error) {
	var records []models.ClockRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID,
			datatypes.Date(models.DateOf(start)), datatypes.Date(models.DateOf(end))).
		Order("date ASC").
		Find(&records).Error
	return records, err
}

// QueryAllClockRecordsInRange is the admin view across users
func (s *ClockStore) QueryAllClockRecordsInRange(ctx context.Context, start, end time.Time) ([]models.ClockRecord, error) {
	var records []models.ClockRecord
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", datatypes.Date(models.DateOf(start)), datatypes.Date(models.DateOf(end))).
		Order("date ASC, user_id ASC").
		Find(&records).Error
	return records, err
}
