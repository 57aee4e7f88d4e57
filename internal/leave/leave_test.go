package leave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/logging"
	"github.com/balkashynov/attendr/internal/models"
)

var (
	employee = auth.Session{UserID: "emp", Email: "emp@example.com", Role: models.RoleEmployee}
	admin    = auth.Session{UserID: "boss", Email: "boss@example.com", Role: models.RoleAdmin}
	errBoom  = errors.New("boom")
)

type memStore struct {
	mu       sync.Mutex
	nextID   uint
	reqs     map[uint]*models.LeaveRequest
	failRead bool
	// raced simulates another reviewer deciding between read and write
	raced bool
}

func newMemStore() *memStore {
	return &memStore{reqs: map[uint]*models.LeaveRequest{}}
}

func (s *memStore) InsertLeaveRequest(ctx context.Context, req *models.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	req.ID = s.nextID
	req.CreatedAt = time.Now()
	cp := *req
	s.reqs[req.ID] = &cp
	return nil
}

func (s *memStore) FindLeaveRequest(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return nil, errBoom
	}
	req, ok := s.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (s *memStore) list(keep func(*models.LeaveRequest) bool) []models.LeaveRequest {
	var out []models.LeaveRequest
	for _, r := range s.reqs {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *memStore) QueryLeaveRequestsForUser(ctx context.Context, userID string) ([]models.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return nil, errBoom
	}
	return s.list(func(r *models.LeaveRequest) bool { return r.UserID == userID }), nil
}

func (s *memStore) QueryAllLeaveRequests(ctx context.Context, status models.LeaveStatus) ([]models.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(r *models.LeaveRequest) bool { return status == "" || r.Status == status }), nil
}

func (s *memStore) UpdateLeaveStatus(ctx context.Context, id uint, status models.LeaveStatus, decidedBy string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok || req.Status != models.LeaveStatusPending || s.raced {
		return false, nil
	}
	req.Status = status
	req.DecidedBy = &decidedBy
	req.DecidedAt = &at
	return true, nil
}

func (s *memStore) CountLeaveRequests(ctx context.Context, userID string) (map[models.LeaveStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[models.LeaveStatus]int64{}
	for _, r := range s.reqs {
		if userID == "" || r.UserID == userID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, validator.New(), logging.Discard()), store
}

func validInput() ApplyInput {
	return ApplyInput{
		LeaveType: "Sick",
		TeamName:  "Platform",
		Reason:    "flu",
		StartDate: time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC),
		Days:      3,
	}
}

func TestApplyCreatesPendingRequest(t *testing.T) {
	svc, _ := newTestService()
	req, err := svc.Apply(context.Background(), employee, validInput())
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if req.Status != models.LeaveStatusPending || req.UserID != employee.UserID {
		t.Fatalf("unexpected request %+v", req)
	}
	if got := time.Time(req.EndDate); !got.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("EndDate = %v, want 2025-03-05", got)
	}
	if req.Days() != 3 {
		t.Fatalf("Days() = %d, want 3", req.Days())
	}
}

func TestApplyValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ApplyInput)
	}{
		{"missing type", func(in *ApplyInput) { in.LeaveType = "  " }},
		{"missing team", func(in *ApplyInput) { in.TeamName = "" }},
		{"missing reason", func(in *ApplyInput) { in.Reason = "" }},
		{"missing start", func(in *ApplyInput) { in.StartDate = time.Time{} }},
		{"no end or days", func(in *ApplyInput) { in.Days = 0 }},
		{"end before start", func(in *ApplyInput) {
			in.Days = 0
			in.EndDate = in.StartDate.AddDate(0, 0, -1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Apply(context.Background(), employee, in)
			if !errors.Is(err, ErrInvalidLeave) {
				t.Fatalf("Apply() err = %v, want ErrInvalidLeave", err)
			}
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validator errors inside %v", err)
			}
			if len(store.reqs) != 0 {
				t.Fatalf("invalid request was stored")
			}
		})
	}
}

func TestApplySameDayRange(t *testing.T) {
	svc, _ := newTestService()
	in := validInput()
	in.Days = 0
	in.EndDate = in.StartDate.Add(2 * time.Hour)
	req, err := svc.Apply(context.Background(), employee, in)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if req.Days() != 1 {
		t.Fatalf("Days() = %d, want 1", req.Days())
	}
}

func TestAuthRequiredBeforeIO(t *testing.T) {
	svc, store := newTestService()
	store.failRead = true
	ctx := context.Background()
	if _, err := svc.Apply(ctx, auth.Session{}, validInput()); !errors.Is(err, attendance.ErrAuthRequired) {
		t.Errorf("Apply() err = %v", err)
	}
	if _, err := svc.ListMine(ctx, auth.Session{}); !errors.Is(err, attendance.ErrAuthRequired) {
		t.Errorf("ListMine() err = %v", err)
	}
	if _, err := svc.Decide(ctx, auth.Session{}, 1, models.LeaveStatusApproved); !errors.Is(err, attendance.ErrAuthRequired) {
		t.Errorf("Decide() err = %v", err)
	}
	if _, err := svc.Counts(ctx, auth.Session{}); !errors.Is(err, attendance.ErrAuthRequired) {
		t.Errorf("Counts() err = %v", err)
	}
}

func TestDecide(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	req, err := svc.Apply(ctx, employee, validInput())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Decide(ctx, employee, req.ID, models.LeaveStatusApproved); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee Decide() err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Decide(ctx, admin, req.ID, models.LeaveStatusPending); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("Decide(Pending) err = %v, want ErrInvalidDecision", err)
	}
	if _, err := svc.Decide(ctx, admin, 999, models.LeaveStatusApproved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Decide(999) err = %v, want ErrNotFound", err)
	}

	decided, err := svc.Decide(ctx, admin, req.ID, models.LeaveStatusApproved)
	if err != nil {
		t.Fatalf("Decide() failed: %v", err)
	}
	if decided.Status != models.LeaveStatusApproved || decided.DecidedBy == nil || *decided.DecidedBy != admin.UserID {
		t.Fatalf("unexpected decision %+v", decided)
	}

	if _, err := svc.Decide(ctx, admin, req.ID, models.LeaveStatusRejected); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second Decide() err = %v, want ErrNotPending", err)
	}
	if store.reqs[req.ID].Status != models.LeaveStatusApproved {
		t.Fatalf("decided request changed")
	}
}

func TestDecideLosesRace(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	req, err := svc.Apply(ctx, employee, validInput())
	if err != nil {
		t.Fatal(err)
	}
	store.raced = true
	if _, err := svc.Decide(ctx, admin, req.ID, models.LeaveStatusRejected); !errors.Is(err, ErrNotPending) {
		t.Fatalf("Decide() err = %v, want ErrNotPending", err)
	}
}

func TestDecideReadFailure(t *testing.T) {
	svc, store := newTestService()
	store.failRead = true
	_, err := svc.Decide(context.Background(), admin, 1, models.LeaveStatusApproved)
	if !errors.Is(err, attendance.ErrRemoteReadFailed) || !errors.Is(err, errBoom) {
		t.Fatalf("Decide() err = %v, want ErrRemoteReadFailed wrapping the cause", err)
	}
}

func TestListsAndCounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	other := auth.Session{UserID: "other", Role: models.RoleEmployee}

	first, _ := svc.Apply(ctx, employee, validInput())
	if _, err := svc.Apply(ctx, employee, validInput()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Apply(ctx, other, validInput()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Decide(ctx, admin, first.ID, models.LeaveStatusRejected); err != nil {
		t.Fatal(err)
	}

	mine, err := svc.ListMine(ctx, employee)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListMine() = %d, %v", len(mine), err)
	}
	if _, err := svc.ListAll(ctx, employee, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee ListAll() err = %v, want ErrForbidden", err)
	}
	pending, err := svc.ListAll(ctx, admin, models.LeaveStatusPending)
	if err != nil || len(pending) != 2 {
		t.Fatalf("ListAll(Pending) = %d, %v", len(pending), err)
	}
	if _, err := svc.ListAll(ctx, admin, "Maybe"); !errors.Is(err, ErrInvalidLeave) {
		t.Fatalf("ListAll(Maybe) err = %v", err)
	}

	counts, err := svc.Counts(ctx, employee)
	if err != nil || counts != (Counts{Pending: 1, Rejected: 1}) {
		t.Fatalf("employee Counts() = %+v, %v", counts, err)
	}
	counts, err = svc.Counts(ctx, admin)
	if err != nil || counts.Total() != 3 || counts.Pending != 2 {
		t.Fatalf("admin Counts() = %+v, %v", counts, err)
	}
}
