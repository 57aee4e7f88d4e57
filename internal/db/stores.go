package db

import (
	"log/slog"

	"gorm.io/gorm"
)

// Stores bundles every store over one connection and one feed
type Stores struct {
	DB     *gorm.DB
	Feed   *Feed
	Clock  *ClockStore
	Leaves *LeaveStore
	Users  *UserStore
}

func NewStores(db *gorm.DB, logger *slog.Logger) *Stores {
	feed := NewFeed(logger)
	return &Stores{
		DB:     db,
		Feed:   feed,
		Clock:  NewClockStore(db, feed),
		Leaves: NewLeaveStore(db, feed),
		Users:  NewUserStore(db),
	}
}
