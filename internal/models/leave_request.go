package models

import (
	"time"

	"gorm.io/datatypes"
)

type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "Pending"
	LeaveStatusApproved LeaveStatus = "Approved"
	LeaveStatusRejected LeaveStatus = "Rejected"
)

// Valid reports whether s is one of the known statuses.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusRejected:
		return true
	}
	return false
}

// LeaveRequest is a user's request for time off
type LeaveRequest struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    string         `gorm:"not null;index" json:"user_id"`
	LeaveType string         `gorm:"not null" json:"leave_type"`
	TeamName  string         `json:"team_name"`
	StartDate datatypes.Date `gorm:"not null" json:"start_date"`
	EndDate   datatypes.Date `gorm:"not null" json:"end_date"`
	Reason    string         `json:"reason"`
	Status    LeaveStatus    `gorm:"not null;default:Pending;index" json:"status"`

	DecidedBy *string    `json:"decided_by"`
	DecidedAt *time.Time `json:"decided_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// Days is the inclusive number of calendar days covered by the request.
func (l *LeaveRequest) Days() int {
	start := DateOf(time.Time(l.StartDate))
	end := DateOf(time.Time(l.EndDate))
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
