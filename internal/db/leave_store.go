package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/attendr/internal/models"
)

// LeaveStore persists leave requests with gorm
type LeaveStore struct {
	db   *gorm.DB
	feed *Feed
}

func NewLeaveStore(db *gorm.DB, feed *Feed) *LeaveStore {
	return &LeaveStore{db: db, feed: feed}
}

func (s *LeaveStore) InsertLeaveRequest(ctx context.Context, req *models.LeaveRequest) error {
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return err
	}
	s.feed.Publish(Change{Table: req.TableName(), Op: OpInsert, ID: req.ID, UserID: req.UserID})
	return nil
}

// FindLeaveRequest returns nil when id does not exist
func (s *LeaveStore) FindLeaveRequest(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	var req models.LeaveRequest
	err := s.db.WithContext(ctx).Preload("User").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// QueryLeaveRequestsForUser lists a user's requests, newest first
func (s *LeaveStore) QueryLeaveRequestsForUser(ctx context.Context, userID string) ([]models.LeaveRequest, error) {
	var reqs []models.LeaveRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	return reqs, err
}

// QueryAllLeaveRequests lists every request with its requester, optionally only one status
func (s *LeaveStore) QueryAllLeaveRequests(ctx context.Context, status models.LeaveStatus) ([]models.LeaveRequest, error) {
	var reqs []models.LeaveRequest
	query := s.db.WithContext(ctx).Preload("User")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC, id DESC").Find(&reqs).Error
	return reqs, err
}

// UpdateLeaveStatus moves a Pending request to status. It reports false when the request
// was not Pending any more, so two reviewers cannot both decide it.
func (s *LeaveStore) UpdateLeaveStatus(ctx context.Context, id uint, status models.LeaveStatus, decidedBy string, at time.Time) (bool, error) {
	var owner string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.LeaveRequest
		err := tx.Select("id", "user_id").Where("id = ? AND status = ?", id, models.LeaveStatusPending).First(&req).Error
		if err != nil {
			return err
		}
		res := tx.Model(&models.LeaveRequest{}).
			Where("id = ? AND status = ?", id, models.LeaveStatusPending).
			Updates(map[string]interface{}{
				"status":     status,
				"decided_by": decidedBy,
				"decided_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		owner = req.UserID
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.feed.Publish(Change{Table: models.LeaveRequest{}.TableName(), Op: OpUpdate, ID: id, UserID: owner})
	return true, nil
}

// CountLeaveRequests groups requests by status. An empty userID counts everyone's.
func (s *LeaveStore) CountLeaveRequests(ctx context.Context, userID string) (map[models.LeaveStatus]int64, error) {
	var rows []struct {
		Status models.LeaveStatus
		N      int64
	}
	query := s.db.WithContext(ctx).Model(&models.LeaveRequest{}).Select("status, count(*) AS n")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[models.LeaveStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
