package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/models"
)

var (
	ErrNotFound        = errors.New("leave request not found")
	ErrNotPending      = errors.New("leave request has already been decided")
	ErrForbidden       = errors.New("only admins can review leave requests")
	ErrInvalidLeave    = errors.New("invalid leave request")
	ErrInvalidDecision = errors.New("decision must be Approved or Rejected")
)

// Store is the persistence the leave service needs. Find returns (nil, nil) for unknown ids;
// UpdateLeaveStatus reports false when the request was no longer Pending.
type Store interface {
	InsertLeaveRequest(ctx context.Context, req *models.LeaveRequest) error
	FindLeaveRequest(ctx context.Context, id uint) (*models.LeaveRequest, error)
	QueryLeaveRequestsForUser(ctx context.Context, userID string) ([]models.LeaveRequest, error)
	QueryAllLeaveRequests(ctx context.Context, status models.LeaveStatus) ([]models.LeaveRequest, error)
	UpdateLeaveStatus(ctx context.Context, id uint, status models.LeaveStatus, decidedBy string, at time.Time) (bool, error)
	CountLeaveRequests(ctx context.Context, userID string) (map[models.LeaveStatus]int64, error)
}

// ApplyInput is a new leave request. EndDate may be left zero when Days is given; the
// request then covers Days calendar days starting at StartDate.
type ApplyInput struct {
	LeaveType string    `json:"leave_type" validate:"required,max=64"`
	TeamName  string    `json:"team_name" validate:"required,max=128"`
	Reason    string    `json:"reason" validate:"required,max=1000"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Days      int       `json:"days,omitempty" validate:"omitempty,min=1,max=366"`
}

// Counts is the number of requests in each status
type Counts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

func (c Counts) Total() int64 {
	return c.Pending + c.Approved + c.Rejected
}

type Service struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, validate *validator.Validate, logger *slog.Logger) *Service {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, validate: validate, logger: logger, now: time.Now}
}

// Apply files a Pending request owned by the session user.
func (s *Service) Apply(ctx context.Context, sess auth.Session, in ApplyInput) (*models.LeaveRequest, error) {
	if !sess.Authenticated() {
		return nil, attendance.ErrAuthRequired
	}

	in.LeaveType = strings.TrimSpace(in.LeaveType)
	in.TeamName = strings.TrimSpace(in.TeamName)
	in.Reason = strings.TrimSpace(in.Reason)
	in.StartDate = models.DateOf(in.StartDate)
	if in.EndDate.IsZero() && in.Days > 0 {
		in.EndDate = in.StartDate.AddDate(0, 0, in.Days-1)
	}
	if !in.EndDate.IsZero() {
		in.EndDate = models.DateOf(in.EndDate)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLeave, err)
	}

	req := &models.LeaveRequest{
		UserID:    sess.UserID,
		LeaveType: in.LeaveType,
		TeamName:  in.TeamName,
		StartDate: datatypes.Date(in.StartDate),
		EndDate:   datatypes.Date(in.EndDate),
		Reason:    in.Reason,
		Status:    models.LeaveStatusPending,
	}
	if err := s.store.InsertLeaveRequest(ctx, req); err != nil {
		s.logger.Error("leave insert failed", "user_id", sess.UserID, "err", err)
		return nil, fmt.Errorf("%w: %w", attendance.ErrRemoteWriteFailed, err)
	}
	s.logger.Info("leave requested", "user_id", sess.UserID, "leave_id", req.ID, "days", req.Days())
	return req, nil
}

// ListMine returns the session user's requests, newest first
func (s *Service) ListMine(ctx context.Context, sess auth.Session) ([]models.LeaveRequest, error) {
	if !sess.Authenticated() {
		return nil, attendance.ErrAuthRequired
	}
	reqs, err := s.store.QueryLeaveRequestsForUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrRemoteReadFailed, err)
	}
	return reqs, nil
}

// ListAll returns every user's requests, optionally filtered by status. Admins only.
func (s *Service) ListAll(ctx context.Context, sess auth.Session, status models.LeaveStatus) ([]models.LeaveRequest, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidLeave, status)
	}
	reqs, err := s.store.QueryAllLeaveRequests(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrRemoteReadFailed, err)
	}
	return reqs, nil
}

// Decide approves or rejects a Pending request. Admins only.
func (s *Service) Decide(ctx context.Context, sess auth.Session, id uint, status models.LeaveStatus) (*models.LeaveRequest, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if status != models.LeaveStatusApproved && status != models.LeaveStatusRejected {
		return nil, ErrInvalidDecision
	}

	req, err := s.store.FindLeaveRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrRemoteReadFailed, err)
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status != models.LeaveStatusPending {
		return nil, ErrNotPending
	}

	at := s.now()
	updated, err := s.store.UpdateLeaveStatus(ctx, id, status, sess.UserID, at)
	if err != nil {
		s.logger.Error("leave decision failed", "leave_id", id, "err", err)
		return nil, fmt.Errorf("%w: %w", attendance.ErrRemoteWriteFailed, err)
	}
	if !updated {
		// someone else decided it between the read and the write
		return nil, ErrNotPending
	}

	decidedBy := sess.UserID
	req.Status = status
	req.DecidedBy = &decidedBy
	req.DecidedAt = &at
	s.logger.Info("leave decided", "leave_id", id, "status", status, "decided_by", sess.UserID)
	return req, nil
}

// Counts tallies requests per status: every user's for admins, otherwise the session user's.
func (s *Service) Counts(ctx context.Context, sess auth.Session) (Counts, error) {
	if !sess.Authenticated() {
		return Counts{}, attendance.ErrAuthRequired
	}
	owner := sess.UserID
	if sess.IsAdmin() {
		owner = ""
	}
	m, err := s.store.CountLeaveRequests(ctx, owner)
	if err != nil {
		return Counts{}, fmt.Errorf("%w: %w", attendance.ErrRemoteReadFailed, err)
	}
	return Counts{
		Pending:  m[models.LeaveStatusPending],
		Approved: m[models.LeaveStatusApproved],
		Rejected: m[models.LeaveStatusRejected],
	}, nil
}

func requireAdmin(sess auth.Session) error {
	if !sess.Authenticated() {
		return attendance.ErrAuthRequired
	}
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
